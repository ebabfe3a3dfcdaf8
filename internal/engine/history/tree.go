package history

import (
	"errors"
	"sync"
	"time"

	"github.com/smashed/core/internal/engine/buffer"
	"github.com/smashed/core/internal/engine/cursor"
)

// Common errors for history operations.
var (
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrNothingToRedo   = errors.New("nothing to redo")
	ErrNodeNotFound    = errors.New("history node not found")
	ErrNodeNotReachable = errors.New("history node belongs to a different tree")
)

// NodeID identifies a node in the undo tree. The root node (the state
// before any edits) always has ID 0.
type NodeID uint64

// node is one state transition in the undo tree: applying command to the
// buffer at parent's state produces this node's state.
type node struct {
	id       NodeID
	parent   *node
	children []*node
	// lastChild is the most recently created child, followed by default on
	// Redo. Jump can move current to any other child's subtree instead.
	lastChild *node
	command   Command
	createdAt time.Time
	origin    CommitOrigin
}

// CommitOrigin tells Push where a commit came from, for the typing-
// coalescing heuristic (spec §4.3): only two consecutive CommitLocal
// commits are ever candidates to merge into one undo node; any commit
// carrying CommitOther never merges with a neighboring commit in either
// direction, matching the spec's "a commit from a non-input origin...
// never merges with user typing".
type CommitOrigin uint8

const (
	// CommitLocal marks a commit as a direct, interactively-typed edit.
	CommitLocal CommitOrigin = iota
	// CommitOther marks a commit from any non-input origin (remote,
	// undo/redo replay, recovery replay).
	CommitOther
)

// Typed is implemented by Commands that can report whether they are a
// single-character insertion and which byte range they cover, so Push's
// typing-coalescing heuristic can recognize consecutive keystrokes without
// the history package needing to know anything about EditCommand itself.
type Typed interface {
	Command
	// TypingSpan reports the command's [start, end) byte range and whether
	// it is a single-character insertion eligible for coalescing. Any
	// command that is not a bare single-character insert (a delete, a
	// multi-span batch, a multi-rune paste, ...) returns ok == false.
	TypingSpan() (start, end buffer.ByteOffset, ok bool)
}

// Mergeable is implemented by Commands that can absorb a following Typed
// command into themselves, producing one combined Command that undoes and
// redoes both keystrokes as a single step.
type Mergeable interface {
	Command
	// MergeTyping attempts to fold next into the receiver, returning the
	// combined Command. ok is false if next cannot be merged (e.g. it
	// isn't the same concrete command type).
	MergeTyping(next Command) (merged Command, ok bool)
}

// History manages a branching undo tree for a buffer. Unlike a linear
// undo/redo stack, making a new edit after undoing does not discard the
// undone branch: it becomes a sibling, reachable later via Jump.
type History struct {
	mu sync.Mutex

	root    *node
	current *node
	byID    map[NodeID]*node
	nextID  NodeID

	// Grouping state
	grouping  bool
	groupName string
	groupCmds []Command

	// Pruning configuration
	maxNodes   int
	maxAge     time.Duration
	maxMemory  int64
	currentMem int64

	// groupingInterval is the typing-coalescing window (spec §4.3); zero
	// disables automatic grouping entirely, so every Push starts a new node.
	groupingInterval time.Duration
}

// NewHistory creates a new history tree. maxEntries bounds the number of
// live nodes (the root-to-current chain is always exempt); a value <= 0
// uses a default of 1000.
func NewHistory(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	root := &node{id: 0, createdAt: time.Now()}
	h := &History{
		root:     root,
		current:  root,
		byID:     map[NodeID]*node{0: root},
		nextID:   1,
		maxNodes: maxEntries,
	}
	return h
}

// WithMaxAge sets the maximum age a node may reach before it becomes
// eligible for pruning (subject to the root-to-current exemption).
func (h *History) WithMaxAge(d time.Duration) *History {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.maxAge = d
	return h
}

// WithMaxMemory sets an approximate byte budget for retained undo text.
// Pruning trims the oldest off-chain nodes first when the budget is exceeded.
func (h *History) WithMaxMemory(bytes int64) *History {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.maxMemory = bytes
	return h
}

// WithGroupingInterval sets the maximum gap between consecutive
// CommitLocal single-character inserts at adjacent positions for Push to
// coalesce them into one undo node (spec §4.3). Zero (the default)
// disables coalescing entirely.
func (h *History) WithGroupingInterval(d time.Duration) *History {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.groupingInterval = d
	return h
}

// Execute runs a command and adds it to the tree as a new child of the
// current node.
func (h *History) Execute(cmd Command, buf *buffer.Buffer, cursors *cursor.CursorSet) error {
	if err := cmd.Execute(buf, cursors); err != nil {
		return err
	}
	h.Push(cmd)
	return nil
}

// Push records a command that has already been applied to the buffer,
// adding it as a new child of the current node and moving current to it.
// Any existing grouping in progress absorbs the command instead. Push
// treats cmd as a CommitLocal commit; callers that need to record a
// Remote/Undo/Replay commit (which must never coalesce with surrounding
// user typing) call PushFromOrigin directly.
func (h *History) Push(cmd Command) {
	h.PushFromOrigin(cmd, CommitLocal)
}

// PushFromOrigin is Push with an explicit CommitOrigin. When origin is
// CommitLocal, cmd is a single-character insert (per Typed), the current
// node's own commit was also CommitLocal and itself a Typed/Mergeable
// single-character insert, the gap since that node's creation is within
// the configured GroupingInterval, and cmd's start offset is adjacent to
// that node's end offset, cmd is folded into the current node instead of
// starting a new one (spec §4.3's typing-coalescing heuristic). Any other
// case -- including a zero GroupingInterval, a non-Typed/non-Mergeable
// command, a timing or adjacency miss, or a non-local origin on either
// side -- records a new node as usual.
func (h *History) PushFromOrigin(cmd Command, origin CommitOrigin) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping {
		h.groupCmds = append(h.groupCmds, cmd)
		return
	}

	if origin == CommitLocal && h.tryMergeLocked(cmd) {
		return
	}

	h.pushLocked(cmd, origin)
}

// tryMergeLocked attempts to fold cmd into h.current per the typing-
// coalescing heuristic; reports whether it succeeded. Caller holds h.mu.
func (h *History) tryMergeLocked(cmd Command) bool {
	if h.groupingInterval <= 0 {
		return false
	}
	prev := h.current
	if prev.parent == nil || prev.origin != CommitLocal {
		return false
	}
	if time.Since(prev.createdAt) > h.groupingInterval {
		return false
	}

	next, ok := cmd.(Typed)
	if !ok {
		return false
	}
	nextStart, _, nextIsChar := next.TypingSpan()
	if !nextIsChar {
		return false
	}

	prevTyped, ok := prev.command.(Typed)
	if !ok {
		return false
	}
	_, prevEnd, prevIsChar := prevTyped.TypingSpan()
	if !prevIsChar || nextStart != prevEnd {
		return false
	}

	merger, ok := prev.command.(Mergeable)
	if !ok {
		return false
	}
	merged, ok := merger.MergeTyping(cmd)
	if !ok {
		return false
	}

	h.currentMem += commandMemSize(merged) - commandMemSize(prev.command)
	prev.command = merged
	prev.createdAt = time.Now()
	return true
}

func (h *History) pushLocked(cmd Command, origin CommitOrigin) {
	n := &node{
		id:        h.nextID,
		parent:    h.current,
		command:   cmd,
		createdAt: time.Now(),
		origin:    origin,
	}
	h.nextID++
	h.current.children = append(h.current.children, n)
	h.current.lastChild = n
	h.byID[n.id] = n
	h.current = n
	h.currentMem += commandMemSize(cmd)

	h.pruneLocked()
}

// UndoWithCommand behaves like Undo but also returns the Command that was
// undone, so a caller that needs finer-grained information about what
// changed (e.g. the pipeline's EditEvent/search-index refresh) doesn't
// have to diff buffer content itself.
func (h *History) UndoWithCommand(buf *buffer.Buffer, cursors *cursor.CursorSet) (Command, error) {
	h.mu.Lock()
	if h.current.parent == nil {
		h.mu.Unlock()
		return nil, ErrNothingToUndo
	}
	n := h.current
	h.mu.Unlock()

	if err := n.command.Undo(buf, cursors); err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.current = n.parent
	h.mu.Unlock()
	return n.command, nil
}

// RedoWithCommand behaves like Redo but also returns the Command that was
// (re)executed.
func (h *History) RedoWithCommand(buf *buffer.Buffer, cursors *cursor.CursorSet) (Command, error) {
	h.mu.Lock()
	child := h.current.lastChild
	if child == nil {
		h.mu.Unlock()
		return nil, ErrNothingToRedo
	}
	h.mu.Unlock()

	if err := child.command.Execute(buf, cursors); err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.current = child
	h.mu.Unlock()
	return child.command, nil
}

// Undo reverses the command at the current node and moves current to its
// parent. Returns ErrNothingToUndo at the root.
func (h *History) Undo(buf *buffer.Buffer, cursors *cursor.CursorSet) error {
	h.mu.Lock()
	if h.current.parent == nil {
		h.mu.Unlock()
		return ErrNothingToUndo
	}
	n := h.current
	h.mu.Unlock()

	if err := n.command.Undo(buf, cursors); err != nil {
		return err
	}

	h.mu.Lock()
	h.current = n.parent
	h.mu.Unlock()
	return nil
}

// Redo re-applies the command at current's lastChild and moves current
// there. Returns ErrNothingToRedo at a leaf.
func (h *History) Redo(buf *buffer.Buffer, cursors *cursor.CursorSet) error {
	h.mu.Lock()
	child := h.current.lastChild
	if child == nil {
		h.mu.Unlock()
		return ErrNothingToRedo
	}
	h.mu.Unlock()

	if err := child.command.Execute(buf, cursors); err != nil {
		return err
	}

	h.mu.Lock()
	h.current = child
	h.mu.Unlock()
	return nil
}

// CanUndo returns true if the current node is not the root.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current.parent != nil
}

// CanRedo returns true if the current node has a last-visited child.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current.lastChild != nil
}

// UndoCount returns the depth of the current node below the root.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	count := 0
	for n := h.current; n.parent != nil; n = n.parent {
		count++
	}
	return count
}

// RedoCount returns the length of the default redo chain (following
// lastChild pointers) from the current node.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	count := 0
	for n := h.current; n.lastChild != nil; n = n.lastChild {
		count++
	}
	return count
}

// CurrentNodeID returns the ID of the node the buffer currently reflects.
func (h *History) CurrentNodeID() NodeID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current.id
}

// Jump moves the buffer to the state at the given node, undoing or
// redoing along the tree as needed. It is the only way to reach a branch
// that isn't on the default (lastChild) redo path. After Jump, the path
// walked becomes the new default redo path for every ancestor it passed
// through, so a later plain Redo continues toward the node just jumped to.
func (h *History) Jump(id NodeID, buf *buffer.Buffer, cursors *cursor.CursorSet) error {
	h.mu.Lock()
	target, ok := h.byID[id]
	if !ok {
		h.mu.Unlock()
		return ErrNodeNotFound
	}
	current := h.current
	h.mu.Unlock()

	ancestor, upPath, downPath := pathBetween(current, target)

	for _, n := range upPath {
		if err := n.command.Undo(buf, cursors); err != nil {
			return err
		}
		h.mu.Lock()
		h.current = n.parent
		h.mu.Unlock()
	}

	for _, n := range downPath {
		if err := n.command.Execute(buf, cursors); err != nil {
			return err
		}
		h.mu.Lock()
		n.parent.lastChild = n
		h.current = n
		h.mu.Unlock()
	}

	_ = ancestor
	return nil
}

// pathBetween returns the nodes to undo (from, exclusive of the common
// ancestor, root-ward) and the nodes to redo (exclusive of the common
// ancestor, leaf-ward toward to) to move from `from` to `to`.
func pathBetween(from, to *node) (ancestor *node, upPath, downPath []*node) {
	fromChain := map[*node]int{}
	for n, depth := from, 0; n != nil; n, depth = n.parent, depth+1 {
		fromChain[n] = depth
	}

	var toPath []*node
	n := to
	for {
		if _, ok := fromChain[n]; ok {
			ancestor = n
			break
		}
		toPath = append(toPath, n)
		n = n.parent
	}

	for n := from; n != ancestor; n = n.parent {
		upPath = append(upPath, n)
	}

	downPath = make([]*node, len(toPath))
	for i, n := range toPath {
		downPath[len(toPath)-1-i] = n
	}
	return ancestor, upPath, downPath
}

// BeginGroup starts a command group; commands pushed while grouping are
// combined into a single tree node on EndGroup.
func (h *History) BeginGroup(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping {
		return
	}

	h.grouping = true
	h.groupName = name
	h.groupCmds = nil
}

// EndGroup finishes a command group, pushing a CompoundCommand node.
func (h *History) EndGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.grouping {
		return
	}
	h.grouping = false

	if len(h.groupCmds) == 0 {
		h.groupCmds = nil
		return
	}

	compound := &CompoundCommand{
		Name:     h.groupName,
		Commands: h.groupCmds,
	}
	h.pushLocked(compound, CommitLocal)
	h.groupCmds = nil
}

// CancelGroup cancels a command group without adding it to the tree.
// Commands already executed still affect the buffer.
func (h *History) CancelGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.grouping = false
	h.groupCmds = nil
}

// IsGrouping returns true if currently in a command group.
func (h *History) IsGrouping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.grouping
}

// Clear resets the tree to a single root node, discarding all history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	root := &node{id: 0, createdAt: time.Now()}
	h.root = root
	h.current = root
	h.byID = map[NodeID]*node{0: root}
	h.nextID = 1
	h.grouping = false
	h.groupCmds = nil
	h.currentMem = 0
}

// UndoInfo returns info about the chain from root to current, closest
// (next undo) first.
func (h *History) UndoInfo() []OperationInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	var result []OperationInfo
	for n := h.current; n.parent != nil; n = n.parent {
		result = append(result, OperationInfo{
			Description: n.command.Description(),
			Timestamp:   n.createdAt,
		})
	}
	return result
}

// RedoInfo returns info about the default redo chain, closest (next redo) first.
func (h *History) RedoInfo() []OperationInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	var result []OperationInfo
	for n := h.current.lastChild; n != nil; n = n.lastChild {
		result = append(result, OperationInfo{
			Description: n.command.Description(),
			Timestamp:   n.createdAt,
		})
	}
	return result
}

// PeekUndo returns info about the next undo operation without applying it.
func (h *History) PeekUndo() (OperationInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current.parent == nil {
		return OperationInfo{}, false
	}
	return OperationInfo{
		Description: h.current.command.Description(),
		Timestamp:   h.current.createdAt,
	}, true
}

// PeekRedo returns info about the next redo operation without applying it.
func (h *History) PeekRedo() (OperationInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current.lastChild == nil {
		return OperationInfo{}, false
	}
	return OperationInfo{
		Description: h.current.lastChild.command.Description(),
		Timestamp:   h.current.lastChild.createdAt,
	}, true
}

// Children returns the IDs of the children of the given node, in creation
// order, for callers that want to present alternate redo branches.
func (h *History) Children(id NodeID) ([]NodeID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, ok := h.byID[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	ids := make([]NodeID, len(n.children))
	for i, c := range n.children {
		ids[i] = c.id
	}
	return ids, nil
}

// pruneLocked drops off-chain nodes once the tree exceeds its configured
// limits. The path from root to current is never touched, so the buffer's
// own history back to the start of the session always survives.
func (h *History) pruneLocked() {
	if h.maxNodes <= 0 && h.maxAge <= 0 && h.maxMemory <= 0 {
		return
	}

	onChain := map[*node]bool{}
	for n := h.current; n != nil; n = n.parent {
		onChain[n] = true
	}

	if h.maxNodes > 0 && len(h.byID) > h.maxNodes {
		h.pruneOldestOffChain(onChain, len(h.byID)-h.maxNodes)
	}

	if h.maxAge > 0 {
		cutoff := time.Now().Add(-h.maxAge)
		h.pruneOlderThan(onChain, cutoff)
	}

	if h.maxMemory > 0 && h.currentMem > h.maxMemory {
		h.pruneByMemory(onChain, h.maxMemory)
	}
}

// pruneOldestOffChain removes up to n off-chain leaf/subtree nodes,
// oldest first, detaching each from its parent.
func (h *History) pruneOldestOffChain(onChain map[*node]bool, n int) {
	candidates := h.offChainSubtreeRoots(onChain)
	sortNodesByAge(candidates)
	for i := 0; i < len(candidates) && i < n; i++ {
		h.detach(candidates[i])
	}
}

func (h *History) pruneOlderThan(onChain map[*node]bool, cutoff time.Time) {
	for _, n := range h.offChainSubtreeRoots(onChain) {
		if n.createdAt.Before(cutoff) {
			h.detach(n)
		}
	}
}

func (h *History) pruneByMemory(onChain map[*node]bool, budget int64) {
	candidates := h.offChainSubtreeRoots(onChain)
	sortNodesByAge(candidates)
	for _, n := range candidates {
		if h.currentMem <= budget {
			return
		}
		h.detach(n)
	}
}

// offChainSubtreeRoots returns the topmost off-chain node of every
// off-chain subtree hanging off the root-to-current path.
func (h *History) offChainSubtreeRoots(onChain map[*node]bool) []*node {
	var roots []*node
	for n := range onChain {
		for _, c := range n.children {
			if !onChain[c] {
				roots = append(roots, c)
			}
		}
	}
	return roots
}

// detach removes a subtree rooted at n from the tree's bookkeeping.
func (h *History) detach(n *node) {
	parent := n.parent
	if parent == nil {
		return
	}
	for i, c := range parent.children {
		if c == n {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	if parent.lastChild == n {
		parent.lastChild = nil
		if len(parent.children) > 0 {
			parent.lastChild = parent.children[len(parent.children)-1]
		}
	}

	var walk func(*node)
	walk = func(x *node) {
		delete(h.byID, x.id)
		h.currentMem -= commandMemSize(x.command)
		for _, c := range x.children {
			walk(c)
		}
	}
	walk(n)
}

func sortNodesByAge(nodes []*node) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && nodes[j].createdAt.Before(nodes[j-1].createdAt); j-- {
			nodes[j], nodes[j-1] = nodes[j-1], nodes[j]
		}
	}
}

// commandMemSize estimates the retained bytes of a command for the
// memory-based pruning policy.
// sizedCommand is implemented by command types that know their own retained
// memory footprint more precisely than the type-switch fallback below; the
// pipeline package's undoCommand is the main example.
type sizedCommand interface {
	MemSize() int64
}

func commandMemSize(cmd Command) int64 {
	if sc, ok := cmd.(sizedCommand); ok {
		return sc.MemSize()
	}
	switch c := cmd.(type) {
	case *InsertCommand:
		return int64(len(c.Text))
	case *DeleteCommand:
		return int64(memSizeOfOperations(c.operations))
	case *ReplaceCommand:
		return int64(len(c.NewText))
	case *CompoundCommand:
		var total int64
		for _, sub := range c.Commands {
			total += commandMemSize(sub)
		}
		return total
	default:
		return 64
	}
}

func memSizeOfOperations(ops OperationList) int {
	total := 0
	for _, op := range ops {
		total += len(op.OldText) + len(op.NewText)
	}
	return total
}

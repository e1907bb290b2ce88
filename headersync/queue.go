package headersync

import (
	"bytes"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/hyperledger-labs/yui-bridge-relayer/log"
	"github.com/tidwall/btree"
)

const btreeDegree = 32

// headersQueue is a queue of headers ordered by their numbers
type headersQueue struct {
	m *btree.Map[uint64, map[common.Hash]*QueuedHeader]
}

func newHeadersQueue() *headersQueue {
	return &headersQueue{m: btree.NewMap[uint64, map[common.Hash]*QueuedHeader](btreeDegree)}
}

func (q *headersQueue) insert(header *QueuedHeader) {
	id := header.ID()
	headers, ok := q.m.Get(id.Number)
	if !ok {
		headers = make(map[common.Hash]*QueuedHeader)
		q.m.Set(id.Number, headers)
	}
	headers[id.Hash] = header
}

func (q *headersQueue) remove(id core.HeaderID) (*QueuedHeader, bool) {
	headers, ok := q.m.Get(id.Number)
	if !ok {
		return nil, false
	}
	header, ok := headers[id.Hash]
	if !ok {
		return nil, false
	}
	delete(headers, id.Hash)
	if len(headers) == 0 {
		q.m.Delete(id.Number)
	}
	return header, true
}

// childrenOf removes and returns all headers at the given number whose parent is one of parents
func (q *headersQueue) childrenOf(number uint64, parents map[common.Hash]struct{}) []*QueuedHeader {
	headers, ok := q.m.Get(number)
	if !ok {
		return nil
	}
	var children []*QueuedHeader
	for hash, header := range headers {
		if _, ok := parents[header.Header().ParentHash]; ok {
			children = append(children, header)
			delete(headers, hash)
		}
	}
	if len(headers) == 0 {
		q.m.Delete(number)
	}
	return children
}

func (q *headersQueue) count() int {
	total := 0
	q.m.Scan(func(_ uint64, headers map[common.Hash]*QueuedHeader) bool {
		total += len(headers)
		return true
	})
	return total
}

func (q *headersQueue) bestNumber() uint64 {
	number, _, ok := q.m.Max()
	if !ok {
		return 0
	}
	return number
}

// oldestWhile returns the oldest headers of the queue until f returns false
func (q *headersQueue) oldestWhile(f func(*QueuedHeader) bool) []*QueuedHeader {
	var result []*QueuedHeader
	q.m.Scan(func(_ uint64, headers map[common.Hash]*QueuedHeader) bool {
		for _, header := range sortedByHash(headers) {
			if !f(header) {
				return false
			}
			result = append(result, header)
		}
		return true
	})
	return result
}

func (q *headersQueue) oldest() *QueuedHeader {
	var oldest *QueuedHeader
	q.oldestWhile(func(header *QueuedHeader) bool {
		oldest = header
		return false
	})
	return oldest
}

func (q *headersQueue) prune(border uint64) {
	var pruned []uint64
	q.m.Scan(func(number uint64, _ map[common.Hash]*QueuedHeader) bool {
		if number >= border {
			return false
		}
		pruned = append(pruned, number)
		return true
	})
	for _, number := range pruned {
		q.m.Delete(number)
	}
}

// sortedByHash makes iteration over headers with the same number deterministic
func sortedByHash(headers map[common.Hash]*QueuedHeader) []*QueuedHeader {
	sorted := make([]*QueuedHeader, 0, len(headers))
	for _, header := range headers {
		sorted = append(sorted, header)
	}
	slices.SortFunc(sorted, func(a, b *QueuedHeader) int {
		return bytes.Compare(a.header.Hash[:], b.header.Hash[:])
	})
	return sorted
}

// QueuedHeaders holds every header the sync has seen, grouped by status
type QueuedHeaders struct {
	queues map[HeaderStatus]*headersQueue
	// known holds the statuses of all headers that may be touched in the future
	known *btree.Map[uint64, map[common.Hash]HeaderStatus]
	// headers below pruneBorder are neither stored nor accepted
	pruneBorder      uint64
	bestSyncedNumber uint64

	logger *log.RelayLogger
}

func NewQueuedHeaders() *QueuedHeaders {
	qh := &QueuedHeaders{
		logger: log.GetLogger().WithModule("headersync"),
	}
	qh.Clear()
	return qh
}

// Clear forgets all ever known headers
func (qh *QueuedHeaders) Clear() {
	qh.queues = make(map[HeaderStatus]*headersQueue, len(queuedStatuses))
	for _, status := range queuedStatuses {
		qh.queues[status] = newHeadersQueue()
	}
	qh.known = btree.NewMap[uint64, map[common.Hash]HeaderStatus](btreeDegree)
	qh.pruneBorder = 0
	qh.bestSyncedNumber = 0
}

func (qh *QueuedHeaders) PruneBorder() uint64 {
	return qh.pruneBorder
}

// HeadersInStatus returns the number of headers with the given status
func (qh *QueuedHeaders) HeadersInStatus(status HeaderStatus) int {
	q, ok := qh.queues[status]
	if !ok {
		return 0
	}
	return q.count()
}

// TotalHeaders returns the number of headers that are not yet submitted
func (qh *QueuedHeaders) TotalHeaders() int {
	total := 0
	for _, status := range queuedStatuses {
		if status != StatusSubmitted {
			total += qh.queues[status].count()
		}
	}
	return total
}

// BestQueuedNumber returns the best number of headers that are not yet submitted
func (qh *QueuedHeaders) BestQueuedNumber() uint64 {
	var best uint64
	for _, status := range queuedStatuses {
		if status != StatusSubmitted {
			best = max(best, qh.queues[status].bestNumber())
		}
	}
	return best
}

// BestSyncedNumber returns the best number of headers known to the target
func (qh *QueuedHeaders) BestSyncedNumber() uint64 {
	return qh.bestSyncedNumber
}

func (qh *QueuedHeaders) Status(id core.HeaderID) HeaderStatus {
	statuses, ok := qh.known.Get(id.Number)
	if !ok {
		return StatusUnknown
	}
	status, ok := statuses[id.Hash]
	if !ok {
		return StatusUnknown
	}
	return status
}

func (qh *QueuedHeaders) setStatus(id core.HeaderID, status HeaderStatus) {
	statuses, ok := qh.known.Get(id.Number)
	if !ok {
		statuses = make(map[common.Hash]HeaderStatus)
		qh.known.Set(id.Number, statuses)
	}
	statuses[id.Hash] = status
	qh.logger.Debug("header status changed", "header", id.String(), "status", status.String())
}

// Header returns the oldest header with the given status
func (qh *QueuedHeaders) Header(status HeaderStatus) *QueuedHeader {
	q, ok := qh.queues[status]
	if !ok {
		return nil
	}
	return q.oldest()
}

// Headers returns the oldest headers with the given status until f returns false
func (qh *QueuedHeaders) Headers(status HeaderStatus, f func(*QueuedHeader) bool) []*QueuedHeader {
	q, ok := qh.queues[status]
	if !ok {
		return nil
	}
	return q.oldestWhile(f)
}

// HeaderResponse appends a header downloaded from the source to the queue
func (qh *QueuedHeaders) HeaderResponse(header *Header) {
	id := header.ID()
	if status := qh.Status(id); status != StatusUnknown {
		qh.logger.Debug("ignoring known header", "header", id.String(), "status", status.String())
		return
	}
	if id.Number < qh.pruneBorder {
		qh.logger.Debug("ignoring ancient header", "header", id.String(), "prune_border", qh.pruneBorder)
		return
	}

	// the genesis header has no parent and is known to every target
	parentStatus := StatusSynced
	if id.Number > 0 {
		parentStatus = qh.Status(header.ParentID())
	}

	var status HeaderStatus
	switch parentStatus {
	case StatusUnknown, StatusMaybeOrphan:
		status = StatusMaybeOrphan
	case StatusOrphan:
		status = StatusOrphan
	default:
		status = StatusMaybeReceipts
	}
	qh.queues[status].insert(NewQueuedHeader(header))
	qh.setStatus(id, status)
}

// TargetBestHeaderResponse marks the header and all its ancestors as known to the target
func (qh *QueuedHeaders) TargetBestHeaderResponse(id core.HeaderID) {
	current := id
	for {
		status := qh.Status(current)
		if status == StatusUnknown || status == StatusSynced {
			break
		}
		header, ok := qh.queues[status].remove(current)
		if !ok {
			panic("header has a status but is missing from the queue of the status")
		}
		qh.setStatus(current, StatusSynced)
		if current.Number == 0 {
			break
		}
		current = header.ParentID()
	}
	qh.setStatus(id, StatusSynced)
	qh.bestSyncedNumber = max(qh.bestSyncedNumber, id.Number)

	qh.moveDescendants([]HeaderStatus{StatusMaybeOrphan, StatusOrphan}, StatusMaybeReceipts, id)
}

// MaybeOrphanResponse receives whether the target knows the header
func (qh *QueuedHeaders) MaybeOrphanResponse(id core.HeaderID, known bool) {
	if !known {
		qh.moveDescendants([]HeaderStatus{StatusMaybeOrphan}, StatusOrphan, id)
		return
	}
	qh.moveDescendants([]HeaderStatus{StatusMaybeOrphan, StatusOrphan}, StatusMaybeReceipts, id)
}

// MaybeReceiptsResponse receives whether the target requires receipts of the header
func (qh *QueuedHeaders) MaybeReceiptsResponse(id core.HeaderID, required bool) {
	destination := StatusReady
	if required {
		destination = StatusReceipts
	}
	qh.move(StatusMaybeReceipts, destination, id, nil)
}

// ReceiptsResponse receives receipts of the header downloaded from the source
func (qh *QueuedHeaders) ReceiptsResponse(id core.HeaderID, receipts []*Receipt) {
	qh.move(StatusReceipts, StatusReady, id, func(header *QueuedHeader) *QueuedHeader {
		return header.withReceipts(receipts)
	})
}

// HeadersSubmitted marks the headers as submitted to the target
func (qh *QueuedHeaders) HeadersSubmitted(ids []core.HeaderID) {
	for _, id := range ids {
		qh.move(StatusReady, StatusSubmitted, id, nil)
	}
}

// Prune forgets all headers below the border and never accepts them again
func (qh *QueuedHeaders) Prune(border uint64) {
	if border <= qh.pruneBorder {
		return
	}
	for _, status := range queuedStatuses {
		qh.queues[status].prune(border)
	}

	var pruned []uint64
	qh.known.Scan(func(number uint64, _ map[common.Hash]HeaderStatus) bool {
		if number >= border {
			return false
		}
		pruned = append(pruned, number)
		return true
	})
	for _, number := range pruned {
		qh.known.Delete(number)
	}
	qh.pruneBorder = border
	qh.logger.Debug("pruned headers", "prune_border", border, "pruned_numbers", len(pruned))
}

func (qh *QueuedHeaders) move(from, to HeaderStatus, id core.HeaderID, prepare func(*QueuedHeader) *QueuedHeader) {
	header, ok := qh.queues[from].remove(id)
	if !ok {
		return
	}
	if prepare != nil {
		header = prepare(header)
	}
	qh.queues[to].insert(header)
	qh.setStatus(id, to)
}

// moveDescendants moves all descendants of the header in the given queues to the destination queue
func (qh *QueuedHeaders) moveDescendants(from []HeaderStatus, to HeaderStatus, id core.HeaderID) {
	number := id.Number + 1
	parents := map[common.Hash]struct{}{id.Hash: {}}
	for len(parents) > 0 {
		next := make(map[common.Hash]struct{})
		for _, status := range from {
			for _, header := range qh.queues[status].childrenOf(number, parents) {
				childID := header.ID()
				qh.queues[to].insert(header)
				qh.setStatus(childID, to)
				next[childID.Hash] = struct{}{}
			}
		}
		number++
		parents = next
	}
}

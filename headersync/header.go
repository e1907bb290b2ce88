package headersync

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/hyperledger-labs/yui-bridge-relayer/core"
)

// HeaderStatus is the synchronization status of a header
type HeaderStatus int

const (
	// StatusUnknown is the status of a header that has never been seen
	StatusUnknown HeaderStatus = iota
	// StatusMaybeOrphan is the status of a header whose parent may be unknown to the target
	StatusMaybeOrphan
	// StatusOrphan is the status of a header whose parent is unknown to the target
	StatusOrphan
	// StatusMaybeReceipts is the status of a header for which it is unknown whether the target requires receipts
	StatusMaybeReceipts
	// StatusReceipts is the status of a header whose receipts have to be downloaded before submission
	StatusReceipts
	// StatusReady is the status of a header that is ready to be submitted
	StatusReady
	// StatusSubmitted is the status of a header that has been submitted by us
	StatusSubmitted
	// StatusSynced is the status of a header that is known to the target
	StatusSynced
)

var queuedStatuses = []HeaderStatus{
	StatusMaybeOrphan,
	StatusOrphan,
	StatusMaybeReceipts,
	StatusReceipts,
	StatusReady,
	StatusSubmitted,
}

func (s HeaderStatus) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusMaybeOrphan:
		return "maybe_orphan"
	case StatusOrphan:
		return "orphan"
	case StatusMaybeReceipts:
		return "maybe_receipts"
	case StatusReceipts:
		return "receipts"
	case StatusReady:
		return "ready"
	case StatusSubmitted:
		return "submitted"
	case StatusSynced:
		return "synced"
	default:
		return fmt.Sprintf("HeaderStatus(%d)", int(s))
	}
}

// Header is a header of the source chain
type Header struct {
	Number     uint64
	Hash       common.Hash
	ParentHash common.Hash
	// Data is the encoded header as it is submitted to the target
	Data []byte
}

func (h *Header) ID() core.HeaderID {
	return core.NewHeaderID(h.Number, h.Hash)
}

// ParentID returns the ID of the parent header. It must not be called for the genesis header.
func (h *Header) ParentID() core.HeaderID {
	return core.NewHeaderID(h.Number-1, h.ParentHash)
}

// Receipt is a transaction receipt of a source chain block
type Receipt struct {
	TxHash            common.Hash
	Status            uint64
	CumulativeGasUsed uint64
	Logs              [][]byte
}

// QueuedHeader is a header downloaded from the source with its optional receipts
type QueuedHeader struct {
	header   *Header
	receipts []*Receipt
}

func NewQueuedHeader(header *Header) *QueuedHeader {
	return &QueuedHeader{header: header}
}

func (qh *QueuedHeader) Header() *Header {
	return qh.header
}

func (qh *QueuedHeader) Receipts() []*Receipt {
	return qh.receipts
}

func (qh *QueuedHeader) ID() core.HeaderID {
	return qh.header.ID()
}

func (qh *QueuedHeader) ParentID() core.HeaderID {
	return qh.header.ParentID()
}

func (qh *QueuedHeader) withReceipts(receipts []*Receipt) *QueuedHeader {
	return &QueuedHeader{header: qh.header, receipts: receipts}
}

type encodedHeader struct {
	Header   *Header
	Receipts []*Receipt
}

// EncodedSize estimates the size of the header with its receipts in a submit transaction
func (qh *QueuedHeader) EncodedSize() int {
	bz, err := rlp.EncodeToBytes(encodedHeader{Header: qh.header, Receipts: qh.receipts})
	if err != nil {
		// every field of the header is rlp-encodable
		panic(err)
	}
	return len(bz)
}

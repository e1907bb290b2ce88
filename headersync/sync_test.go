package headersync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger-labs/yui-bridge-relayer/core"
)

func ids(headers []*QueuedHeader) []core.HeaderID {
	var result []core.HeaderID
	for _, h := range headers {
		result = append(result, h.ID())
	}
	return result
}

func TestSelectNewHeaderToDownload(t *testing.T) {
	s := NewHeadersSync(DefaultParams())

	// both the source best number and the target best header are unknown
	_, ok := s.SelectNewHeaderToDownload()
	assert.False(t, ok)

	// only the target best header is known
	s.targetBestHeader = &core.HeaderID{}
	_, ok = s.SelectNewHeaderToDownload()
	assert.False(t, ok)

	// only the source best number is known
	s.targetBestHeader = nil
	s.SourceBestHeaderNumberResponse(100)
	_, ok = s.SelectNewHeaderToDownload()
	assert.False(t, ok)

	// the target is at the source best header
	s.targetBestHeader = &core.HeaderID{Number: 100}
	_, ok = s.SelectNewHeaderToDownload()
	assert.False(t, ok)

	// the source has a new header
	s.SourceBestHeaderNumberResponse(101)
	number, ok := s.SelectNewHeaderToDownload()
	assert.True(t, ok)
	assert.EqualValues(t, 101, number)

	// the target is on a longer fork
	s.SourceBestHeaderNumberResponse(100)
	s.targetBestHeader = &core.HeaderID{Number: 200}
	number, ok = s.SelectNewHeaderToDownload()
	assert.True(t, ok)
	assert.EqualValues(t, 100, number)

	// too many headers are queued
	for i := uint64(1); i < 1000; i++ {
		s.headers.HeaderResponse(header(i))
	}
	_, ok = s.SelectNewHeaderToDownload()
	assert.False(t, ok)
}

func TestSyncWithoutReorgs(t *testing.T) {
	params := DefaultParams()
	params.MaxHeadersInSubmittedStatus = 1
	s := NewHeadersSync(params)

	s.SourceBestHeaderNumberResponse(102)
	require.True(t, s.TargetBestHeaderResponse(id(100)))

	// #101 is downloaded first
	number, ok := s.SelectNewHeaderToDownload()
	require.True(t, ok)
	assert.EqualValues(t, 101, number)
	s.headers.HeaderResponse(header(101))

	// #101 is ready to be submitted
	assert.Equal(t, id(101), s.headers.Header(StatusMaybeReceipts).ID())
	s.headers.MaybeReceiptsResponse(id(101), false)
	assert.Equal(t, id(101), s.headers.Header(StatusReady).ID())
	assert.Equal(t, []core.HeaderID{id(101)}, ids(s.SelectHeadersToSubmit(false)))

	// #102 is ready to be downloaded
	number, ok = s.SelectNewHeaderToDownload()
	require.True(t, ok)
	assert.EqualValues(t, 102, number)
	s.headers.HeaderResponse(header(102))

	s.headers.HeadersSubmitted([]core.HeaderID{id(101)})

	// nothing is submitted while #101 is not synced
	assert.Equal(t, id(102), s.headers.Header(StatusMaybeReceipts).ID())
	s.headers.MaybeReceiptsResponse(id(102), false)
	assert.Equal(t, id(102), s.headers.Header(StatusReady).ID())
	assert.Empty(t, s.SelectHeadersToSubmit(false))

	// the target imports #101, so #102 can be submitted
	require.True(t, s.TargetBestHeaderResponse(id(101)))
	assert.Equal(t, []core.HeaderID{id(102)}, ids(s.SelectHeadersToSubmit(false)))
	s.headers.HeadersSubmitted([]core.HeaderID{id(102)})

	// the target imports #102 and there is nothing to download
	require.True(t, s.TargetBestHeaderResponse(id(102)))
	_, ok = s.SelectNewHeaderToDownload()
	assert.False(t, ok)
}

func TestSyncWithOrphanHeaders(t *testing.T) {
	s := NewHeadersSync(DefaultParams())

	s.SourceBestHeaderNumberResponse(101)
	// the best header at the target is not a part of the source best chain
	s.TargetBestHeaderResponse(forkHeader(100).ID())

	number, ok := s.SelectNewHeaderToDownload()
	require.True(t, ok)
	assert.EqualValues(t, 101, number)
	s.headers.HeaderResponse(header(101))

	// #101 can't be submitted because the status of its parent is unknown
	assert.Empty(t, s.SelectHeadersToSubmit(false))
	assert.Equal(t, id(101), s.headers.Header(StatusMaybeOrphan).ID())

	// the target doesn't know #100, so #101 is orphan and #100 has to be downloaded
	s.headers.MaybeOrphanResponse(id(100), false)
	assert.Equal(t, id(101), s.headers.Header(StatusOrphan).ID())
	orphan := s.SelectOrphanHeaderToDownload()
	require.NotNil(t, orphan)
	assert.Equal(t, id(100), orphan.ParentID())
	s.headers.HeaderResponse(header(100))

	// #100 is queued, so it is not downloaded again
	assert.Equal(t, id(101), s.headers.Header(StatusOrphan).ID())
	assert.Nil(t, s.SelectOrphanHeaderToDownload())

	// #100 can't be submitted because the status of its parent is unknown
	assert.Empty(t, s.SelectHeadersToSubmit(false))
	assert.Equal(t, id(100), s.headers.Header(StatusMaybeOrphan).ID())

	// the target knows #99, so #100 and #101 are not orphans anymore
	s.headers.MaybeOrphanResponse(id(99), true)
	assert.Equal(t, id(100), s.headers.Header(StatusMaybeReceipts).ID())
	s.headers.MaybeReceiptsResponse(id(100), false)
	assert.Equal(t, []core.HeaderID{id(100)}, ids(s.SelectHeadersToSubmit(false)))
	s.headers.HeadersSubmitted([]core.HeaderID{id(100)})

	assert.Equal(t, id(101), s.headers.Header(StatusMaybeReceipts).ID())
	s.headers.MaybeReceiptsResponse(id(101), false)
	assert.Equal(t, []core.HeaderID{id(101)}, ids(s.SelectHeadersToSubmit(false)))
	s.headers.HeadersSubmitted([]core.HeaderID{id(101)})
}

func TestPruningHappensOnTargetBestHeaderResponse(t *testing.T) {
	params := DefaultParams()
	params.PruneDepth = 50
	s := NewHeadersSync(params)
	s.TargetBestHeaderResponse(id(100))
	assert.EqualValues(t, 50, s.headers.PruneBorder())
}

func TestTargetBestHeaderResponseReportsChanges(t *testing.T) {
	s := NewHeadersSync(DefaultParams())
	assert.True(t, s.TargetBestHeaderResponse(id(100)))
	assert.False(t, s.TargetBestHeaderResponse(id(100)))
	assert.True(t, s.TargetBestHeaderResponse(id(101)))
}

func TestOnlySubmittingHeadersInBackupModeWhenStalled(t *testing.T) {
	params := DefaultParams()
	params.BackupMode = true
	s := NewHeadersSync(params)

	s.SourceBestHeaderNumberResponse(101)
	s.TargetBestHeaderResponse(id(100))
	s.headers.HeaderResponse(header(101))
	s.headers.MaybeReceiptsResponse(id(101), false)

	assert.Empty(t, s.SelectHeadersToSubmit(false))
	assert.Equal(t, []core.HeaderID{id(101)}, ids(s.SelectHeadersToSubmit(true)))
}

func TestSelectHeadersToSubmitLimits(t *testing.T) {
	size := NewQueuedHeader(header(1)).EncodedSize()

	cases := map[string]struct {
		maxInSubmitted int
		submitted      int
		maxInSubmit    int
		maxSize        int
		expected       int
	}{
		"count limit":               {maxInSubmitted: 128, maxInSubmit: 3, maxSize: 1 << 20, expected: 3},
		"submitted status limit":    {maxInSubmitted: 4, submitted: 2, maxInSubmit: 32, maxSize: 1 << 20, expected: 2},
		"submitted status is full":  {maxInSubmitted: 2, submitted: 2, maxInSubmit: 32, maxSize: 1 << 20, expected: 0},
		"size limit":                {maxInSubmitted: 128, maxInSubmit: 32, maxSize: 2*size + 1, expected: 2},
		"first header exceeds size": {maxInSubmitted: 128, maxInSubmit: 32, maxSize: 1, expected: 1},
		"all ready headers":         {maxInSubmitted: 128, maxInSubmit: 32, maxSize: 1 << 20, expected: 10},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			s := NewHeadersSync(Params{
				MaxFutureHeadersToDownload:   128,
				MaxHeadersInSubmittedStatus:  c.maxInSubmitted,
				MaxHeadersInSingleSubmit:     c.maxInSubmit,
				MaxHeadersSizeInSingleSubmit: c.maxSize,
				PruneDepth:                   4096,
			})
			for i := uint64(1); i <= 10; i++ {
				put(s.headers, StatusReady, header(i))
			}
			for i := 0; i < c.submitted; i++ {
				put(s.headers, StatusSubmitted, forkHeader(uint64(i+1)))
			}

			selected := s.SelectHeadersToSubmit(false)
			require.Len(t, selected, c.expected)
			for i, h := range selected {
				assert.Equal(t, id(uint64(i+1)), h.ID())
			}
		})
	}
}

func TestRestart(t *testing.T) {
	s := NewHeadersSync(DefaultParams())
	s.SourceBestHeaderNumberResponse(102)
	s.TargetBestHeaderResponse(id(100))
	s.headers.HeaderResponse(header(101))

	s.Restart()

	_, ok := s.SourceBestNumber()
	assert.False(t, ok)
	_, ok = s.TargetBestHeader()
	assert.False(t, ok)
	assert.Equal(t, 0, s.headers.TotalHeaders())
	assert.Equal(t, StatusUnknown, s.headers.Status(id(100)))
}

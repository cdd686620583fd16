package identifier

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		link    string
		key     string
		want    string
		wantErr error
	}{
		{
			name: "plain json list",
			link: `http://hudoc.echr.coe.int/eng#{"itemid":["001-123456"]}`,
			key:  "itemid",
			want: "001-123456",
		},
		{
			name: "percent encoded",
			link: "https://hudoc.grevio.coe.int/eng#%7B%22greviosectionid%22:%5B%22TEST-2023-1%22%5D%7D",
			key:  "greviosectionid",
			want: "TEST-2023-1",
		},
		{
			name: "single quotes",
			link: `http://hudoc.echr.coe.int/eng#{'itemid':['001-9']}`,
			key:  "itemid",
			want: "001-9",
		},
		{
			name: "scalar value",
			link: `http://hudoc.cpt.coe.int/eng#{"cptsectionid":"p-esp-1"}`,
			key:  "cptsectionid",
			want: "p-esp-1",
		},
		{
			name: "first of many",
			link: `http://hudoc.echr.coe.int/eng#{"itemid":["001-1","001-2"]}`,
			key:  "itemid",
			want: "001-1",
		},
		{
			name: "stray percent kept",
			link: `http://hudoc.echr.coe.int/eng#{"itemid":["001-100%"]}`,
			key:  "itemid",
			want: "001-100%",
		},
		{
			name: "stray percent among escapes",
			link: "http://hudoc.echr.coe.int/eng#%7B%22itemid%22:%5B%22001-100%%22%5D%7D",
			key:  "itemid",
			want: "001-100%",
		},
		{
			name:    "no fragment",
			link:    "http://hudoc.echr.coe.int/eng",
			key:     "itemid",
			wantErr: ErrNoFragment,
		},
		{
			name:    "malformed json",
			link:    `http://hudoc.echr.coe.int/eng#{"itemid":[`,
			key:     "itemid",
			wantErr: ErrMalformedFragment,
		},
		{
			name:    "bad escape",
			link:    "http://hudoc.echr.coe.int/eng#%zz",
			key:     "itemid",
			wantErr: ErrMalformedFragment,
		},
		{
			name:    "missing key",
			link:    `http://hudoc.echr.coe.int/eng#{"other":["x"]}`,
			key:     "itemid",
			wantErr: ErrMissingKey,
		},
		{
			name:    "empty list",
			link:    `http://hudoc.echr.coe.int/eng#{"itemid":[]}`,
			key:     "itemid",
			wantErr: ErrMissingKey,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Extract(tt.link, tt.key)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestExtractorFromLinkLogsFailure(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	e := NewExtractor(zap.New(core))

	link := `http://hudoc.echr.coe.int/eng#{"other":["x"]}`
	require.Empty(t, e.FromLink(link, "itemid"))

	entries := logs.FilterMessage("failed to parse identifier from link").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, link, fields["link"])
	require.Equal(t, "itemid", fields["id_key"])
}

func TestExtractorFromLinkSuccess(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	e := NewExtractor(zap.New(core))

	require.Equal(t, "001-1", e.FromLink(`http://x.y/eng#{"itemid":["001-1"]}`, "itemid"))
	require.Zero(t, logs.Len())
}

package sitesview

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhng/qaboard/internal/gateway"
	"github.com/minhng/qaboard/internal/keys"
	"github.com/minhng/qaboard/internal/model"
)

func TestSites_restore_archived_site(t *testing.T) {
	var gotPath string
	var gotBody map[string]bool
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Write([]byte(`{}`))
		}))
	defer srv.Close()

	m := New(gateway.New(srv.URL, "t", 0), nil, keys.DefaultKeyMap(), 80, 24)
	m.sites = []model.Site{{ID: "s1", Name: "shop", Archived: true}}
	m.showAll = true

	// "x" on an archived site restores it without a confirm prompt.
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	require.NotNil(t, cmd)
	assert.Equal(t, modeList, m.mode)

	msg := cmd()
	result, ok := msg.(siteArchivedMsg)
	require.True(t, ok)
	require.NoError(t, result.err)
	assert.False(t, result.archived)
	assert.Equal(t, "/api/site/s1/archive", gotPath)
	assert.Equal(t, map[string]bool{"archived": false}, gotBody)
}

func TestSites_archiving_asks_for_confirmation(t *testing.T) {
	m := New(nil, nil, keys.DefaultKeyMap(), 80, 24)
	m.sites = []model.Site{{ID: "s1", Name: "shop"}}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	require.NotNil(t, cmd)
	assert.Equal(t, modeConfirmArchive, m.mode)
}

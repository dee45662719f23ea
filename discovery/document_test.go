package discovery

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sectionsOf(t *testing.T, doc *Document) map[string]any {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestCreateDefaultHasEverySection(t *testing.T) {
	seeds := map[string]json.RawMessage{
		"nil":     nil,
		"empty":   json.RawMessage(`{}`),
		"partial": json.RawMessage(`{"client":{"firstName":"Ana","zip":"73301"}}`),
	}

	for name, seed := range seeds {
		t.Run(name, func(t *testing.T) {
			doc, err := CreateDefault("discovery_1_abc", "client-1", seed)
			require.NoError(t, err)

			sections := sectionsOf(t, doc)
			for _, key := range Sections {
				v, ok := sections[key]
				assert.True(t, ok, "missing section %s", key)
				assert.NotNil(t, v, "nil section %s", key)
			}
			assert.Equal(t, "discovery_1_abc", doc.Meta.SessionID)
			assert.Equal(t, "client-1", doc.Meta.ClientID)
			assert.False(t, doc.Meta.CreatedAt.IsZero())
		})
	}
}

func TestCreateDefaultSeedReplacesWholeSection(t *testing.T) {
	seed := json.RawMessage(`{"client":{"firstName":"Ana"},"budget":{"min":100}}`)
	doc, err := CreateDefault("discovery_1_abc", "", seed)
	require.NoError(t, err)

	assert.Equal(t, "Ana", doc.Client.FirstName)
	assert.Empty(t, doc.Client.LastName)
	assert.NotNil(t, doc.Client.Household)
	require.NotNil(t, doc.Budget.Min)
	assert.Equal(t, 100.0, *doc.Budget.Min)
	assert.Nil(t, doc.Budget.Max)
}

func TestCreateDefaultSeedCannotOverrideSessionID(t *testing.T) {
	seed := json.RawMessage(`{"meta":{"sessionId":"hijack","agent":"sam"}}`)
	doc, err := CreateDefault("discovery_2_xyz", "", seed)
	require.NoError(t, err)

	assert.Equal(t, "discovery_2_xyz", doc.Meta.SessionID)
	assert.Equal(t, "sam", doc.Meta.Agent)
}

func TestCreateDefaultRejectsBadSeed(t *testing.T) {
	_, err := CreateDefault("discovery_1_abc", "", json.RawMessage(`[1,2]`))
	assert.Error(t, err)

	_, err = CreateDefault("", "", nil)
	assert.Error(t, err)
}

func TestApplyClientName(t *testing.T) {
	doc, err := CreateDefault("s", "", nil)
	require.NoError(t, err)
	doc.Client.LastName = "Previous"

	doc.ApplyClientName("Maria")
	assert.Equal(t, "Maria", doc.Client.FirstName)
	assert.Equal(t, "Previous", doc.Client.LastName)

	doc.ApplyClientName("  Maria   Garcia  Lopez ")
	assert.Equal(t, "Maria", doc.Client.FirstName)
	assert.Equal(t, "Garcia Lopez", doc.Client.LastName)

	doc.ApplyClientName("   ")
	assert.Equal(t, "Maria", doc.Client.FirstName)
}

func TestAppendRapport(t *testing.T) {
	doc, err := CreateDefault("s", "", nil)
	require.NoError(t, err)

	assert.False(t, doc.AppendRapport(""))
	assert.False(t, doc.AppendRapport("   "))
	assert.Empty(t, doc.Rapport)

	before := time.Now().UTC()
	assert.True(t, doc.AppendRapport("hi"))
	require.Len(t, doc.Rapport, 1)
	assert.Equal(t, "hi", doc.Rapport[0].Text)
	assert.False(t, doc.Rapport[0].Ts.Before(before.Truncate(time.Millisecond)))
}

func TestSetAtPath(t *testing.T) {
	doc, err := CreateDefault("s", "", nil)
	require.NoError(t, err)

	require.NoError(t, doc.Set("client.zip", "73301"))
	require.NoError(t, doc.Set("coverage.current.premium", 412.5))
	require.NoError(t, doc.Set("health.conditions", []string{"asthma"}))
	require.NoError(t, doc.Set("discovery.uninsured", true))

	assert.Equal(t, "73301", doc.Client.Zip)
	require.NotNil(t, doc.Coverage.Current.Premium)
	assert.Equal(t, 412.5, *doc.Coverage.Current.Premium)
	assert.Equal(t, []string{"asthma"}, doc.Health.Conditions)
	assert.True(t, doc.Discovery.Uninsured)
	assert.Equal(t, "s", doc.Meta.SessionID)

	v, err := doc.Get("client.zip")
	require.NoError(t, err)
	assert.Equal(t, "73301", v)
}

func TestSetRejectsBadPaths(t *testing.T) {
	doc, err := CreateDefault("s", "", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, doc.Set("client.shoeSize", 9), ErrUnknownPath)
	assert.ErrorIs(t, doc.Set("nope.zip", "1"), ErrUnknownPath)
	assert.ErrorIs(t, doc.Set("rapport", []string{}), ErrRapportAppend)
	assert.ErrorIs(t, doc.Set("meta.sessionId", "other"), ErrImmutableSession)
	assert.Error(t, doc.Set("coverage.current.premium", "lots"))
	assert.Nil(t, doc.Coverage.Current.Premium)
}

func TestSetMetaKeepsSessionID(t *testing.T) {
	doc, err := CreateDefault("s-1", "", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, doc.Set("meta", map[string]any{"sessionId": "hijacked"}), ErrImmutableSession)
	assert.ErrorIs(t, doc.Set("meta", map[string]any{"agent": "Kim"}), ErrImmutableSession)
	assert.Equal(t, "s-1", doc.Meta.SessionID)
	assert.Empty(t, doc.Meta.Agent)

	require.NoError(t, doc.Set("meta", map[string]any{"sessionId": "s-1", "agent": "Kim"}))
	assert.Equal(t, "s-1", doc.Meta.SessionID)
	assert.Equal(t, "Kim", doc.Meta.Agent)
}

func TestSetIndexesIntoLists(t *testing.T) {
	doc, err := CreateDefault("s", "", json.RawMessage(`{"doctors":[{"name":"Dr. Patel"}]}`))
	require.NoError(t, err)

	require.NoError(t, doc.Set("doctors.0.mustKeep", true))
	assert.True(t, doc.Doctors[0].MustKeep)

	v, err := doc.Get("doctors.0.name")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Patel", v)

	assert.ErrorIs(t, doc.Set("doctors.3.name", "x"), ErrUnknownPath)
	assert.ErrorIs(t, doc.Set("client.*", "x"), ErrUnknownPath)
	_, err = doc.Get("doctors.#.name")
	assert.ErrorIs(t, err, ErrUnknownPath)
}

func TestNewSessionIDFormatAndUniqueness(t *testing.T) {
	id := NewSessionID()
	parts := strings.Split(id, "_")
	require.Len(t, parts, 3)
	assert.Equal(t, "discovery", parts[0])
	assert.Len(t, parts[2], 9)

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := NewSessionID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

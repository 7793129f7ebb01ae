package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seo-leads/internal/model"
	"github.com/sells-group/seo-leads/internal/scorer"
	"github.com/sells-group/seo-leads/pkg/google"
	"github.com/sells-group/seo-leads/pkg/google/mocks"
)

type mockStore struct {
	mu     sync.Mutex
	leads  []model.Lead
	failOn string
}

func (m *mockStore) CreateLead(_ context.Context, lead *model.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lead.BusinessName == m.failOn {
		return errors.New("insert failed")
	}
	lead.ID = fmt.Sprintf("lead-%d", len(m.leads)+1)
	m.leads = append(m.leads, *lead)
	return nil
}

// fakeAnalyzer returns fixed signals per website.
type fakeAnalyzer struct {
	mu     sync.Mutex
	bySite map[string]model.Signals
	seen   []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, website string) model.Signals {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, website)
	if s, ok := f.bySite[website]; ok {
		return s.Clone()
	}
	return model.EmptySignals()
}

func strongSignals() model.Signals {
	s := model.EmptySignals()
	s.HasSchema = true
	s.HasFAQ = true
	s.HasOrg = true
	s.MetaTitleOK = true
	s.MetaDescOK = true
	return s
}

func weakSignals() model.Signals {
	s := model.EmptySignals()
	s.AddIssue(model.IssueMissingSchema)
	s.AddIssue(model.IssueMetaTitle)
	return s
}

func place(name, website string) google.Place {
	return google.Place{
		ID:                  "id-" + name,
		DisplayName:         google.DisplayName{Text: name},
		WebsiteURI:          website,
		NationalPhoneNumber: "(512) 555-0100",
		FormattedAddress:    "Austin, TX, USA",
	}
}

func TestFind_FromPlaces_SortedAndTruncated(t *testing.T) {
	places := mocks.NewMockClient(t)
	places.On("TextSearch", mock.Anything, "Plumbing in Austin, TX", 12).
		Return(&google.TextSearchResponse{Places: []google.Place{
			place("Strong Co", "https://strong.example"),
			place("Weak Co", "https://weak.example"),
			place("Offline Co", ""),
			place("", "https://nameless.example"),
		}}, nil)

	analyzer := &fakeAnalyzer{bySite: map[string]model.Signals{
		"https://strong.example": strongSignals(),
		"https://weak.example":   weakSignals(),
	}}
	st := &mockStore{}
	f := NewFinder(st, places, analyzer, Config{})

	leads, err := f.Find(context.Background(), Request{Geography: "Austin, TX", Industry: "Plumbing", MaxResults: 2})
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, "Weak Co", leads[0].BusinessName)
	assert.Equal(t, 46, leads[0].Score)
	assert.Equal(t, "Offline Co", leads[1].BusinessName)
	assert.Equal(t, 48, leads[1].Score)
	assert.Equal(t, []string{model.IssueNoWebsite}, leads[1].Signals.Issues)

	for _, l := range leads {
		assert.NotEmpty(t, l.ID)
		assert.Equal(t, model.SourceGooglePlaces, l.Source)
		assert.Equal(t, model.StatusNew, l.Status)
		assert.Equal(t, model.AnalysisBasic, l.AnalysisStatus)
		assert.Equal(t, model.PriorityHigh, l.Priority)
		assert.Equal(t, scorer.TierStrong, l.Notes)
		assert.Equal(t, "Austin", l.City)
	}

	// Every named place is stored, including the one trimmed from the result.
	assert.Len(t, st.leads, 3)
	assert.NotContains(t, analyzer.seen, "")
}

func TestFind_StoreFailureSkipsLead(t *testing.T) {
	places := mocks.NewMockClient(t)
	places.On("TextSearch", mock.Anything, "HVAC in Denver", 18).
		Return(&google.TextSearchResponse{Places: []google.Place{
			place("Broken Co", "https://broken.example"),
			place("Fine Co", "https://fine.example"),
		}}, nil)

	st := &mockStore{failOn: "Broken Co"}
	f := NewFinder(st, places, &fakeAnalyzer{}, Config{})

	leads, err := f.Find(context.Background(), Request{Geography: "Denver", Industry: "HVAC"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Fine Co", leads[0].BusinessName)
}

func TestFind_PriorityFollowsBucket(t *testing.T) {
	places := mocks.NewMockClient(t)
	places.On("TextSearch", mock.Anything, mock.Anything, mock.Anything).
		Return(&google.TextSearchResponse{Places: []google.Place{place("Strong Co", "https://strong.example")}}, nil)

	analyzer := &fakeAnalyzer{bySite: map[string]model.Signals{"https://strong.example": strongSignals()}}
	f := NewFinder(&mockStore{}, places, analyzer, Config{})

	leads, err := f.Find(context.Background(), Request{Geography: "Austin", Industry: "Roofing", MaxResults: 1})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, 85, leads[0].Score)
	assert.Equal(t, scorer.TierWell, leads[0].Notes)
	assert.Equal(t, model.PriorityLow, leads[0].Priority)
}

func TestFind_DemoFallbackOnPlacesError(t *testing.T) {
	places := mocks.NewMockClient(t)
	places.On("TextSearch", mock.Anything, "Dental in Boise, ID", 30).
		Return(nil, errors.New("quota exceeded"))

	st := &mockStore{}
	f := NewFinder(st, places, &fakeAnalyzer{}, Config{DemoFallback: true})

	leads, err := f.Find(context.Background(), Request{Geography: "Boise, ID", Industry: "Dental", MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Empty(t, st.leads)

	names := map[string]bool{}
	for _, l := range leads {
		names[l.BusinessName] = true
		assert.Empty(t, l.ID)
		assert.Equal(t, model.SourceDemo, l.Source)
		assert.Equal(t, "Boise", l.City)
		assert.Equal(t, "Boise, ID", l.Geography)
	}
	assert.True(t, names["Dental Business 1"])
	assert.True(t, names["Dental Business 3"])
}

func TestFind_DemoLeadShape(t *testing.T) {
	f := NewFinder(&mockStore{}, nil, &fakeAnalyzer{}, Config{DemoFallback: true})

	leads, err := f.Find(context.Background(), Request{Geography: "Reno", Industry: "Legal", MaxResults: 1})
	require.NoError(t, err)
	require.Len(t, leads, 1)

	l := leads[0]
	assert.Equal(t, "Legal Business 1", l.BusinessName)
	assert.Equal(t, "https://example-0.com", l.Website)
	assert.Equal(t, "(555) 000-0000", l.Phone)
	assert.Equal(t, "1 Main St, Reno", l.Address)
}

func TestFind_NoPlacesWithoutFallback(t *testing.T) {
	f := NewFinder(&mockStore{}, nil, &fakeAnalyzer{}, Config{})

	leads, err := f.Find(context.Background(), Request{Geography: "Reno", Industry: "Legal"})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestFind_Validation(t *testing.T) {
	f := NewFinder(&mockStore{}, nil, &fakeAnalyzer{}, Config{})

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"missing geography", Request{Industry: "HVAC"}, "geography is required"},
		{"missing industry", Request{Geography: "Austin"}, "industry is required"},
		{"negative max", Request{Geography: "Austin", Industry: "HVAC", MaxResults: -1}, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Find(context.Background(), tt.req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSearchLimit(t *testing.T) {
	f := NewFinder(&mockStore{}, nil, &fakeAnalyzer{}, Config{})
	assert.Equal(t, 18, f.SearchLimit(3))
	assert.Equal(t, 60, f.SearchLimit(10))
	assert.Equal(t, 60, f.SearchLimit(50))

	custom := NewFinder(&mockStore{}, nil, &fakeAnalyzer{}, Config{SearchMultiplier: 2, SearchCap: 5})
	assert.Equal(t, 4, custom.SearchLimit(2))
	assert.Equal(t, 5, custom.SearchLimit(3))
}

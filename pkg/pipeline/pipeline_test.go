package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"trends-go/pkg/api"
	"trends-go/pkg/extractor"
	"trends-go/pkg/keywords"
	"trends-go/pkg/storage"
)

type failingPersister struct{}

func (failingPersister) Persist(ctx context.Context, ds *storage.RunDataset, s storage.RunSummary) (storage.PersistResult, error) {
	return storage.PersistResult{}, errors.New("disk full")
}

type recordingPublisher struct {
	sites []storage.WebsiteDataset
	err   error
}

func (p *recordingPublisher) Publish(ctx context.Context, site storage.WebsiteDataset) error {
	p.sites = append(p.sites, site)
	return p.err
}

func scenarioAPI() *fakeAPI {
	ids := map[string]string{"generator": "t1", "creator": "t2", "blank": "t3"}
	return &fakeAPI{
		postFn: func(call int, reqs []api.TaskRequest) ([]api.PostedTask, error) {
			out := make([]api.PostedTask, len(reqs))
			for i, r := range reqs {
				out[i] = api.PostedTask{ID: ids[r.Tag], Tag: r.Tag, StatusCode: api.StatusTaskCreated}
			}
			return out, nil
		},
		readyFn: func(call int) ([]string, error) {
			if call == 1 {
				return []string{"t1"}, nil
			}
			return []string{"t2", "t3"}, nil
		},
		getFn: func(id string) (*api.TaskPayload, error) {
			switch id {
			case "t1":
				return risingPayload("t1", "generator", "ai generator", `"120"`), nil
			case "t2":
				return risingPayload("t2", "creator", "ai creator", `"BREAKOUT"`), nil
			default:
				return risingPayload("t3", "blank"), nil
			}
		},
	}
}

func newScenarioPipeline(client api.TaskAPI, persister Persister, publisher Publisher, clock *fakeClock) *Pipeline {
	cfg := Config{TimeRange: "past_7_days"}
	return New(Deps{
		Client:    client,
		Extractor: extractor.NewRisingExtractor(10, cfg.TimeRange, extractor.NewLinkBuilder("US", "en")),
		Scores:    keywords.NewScoreTable(nil),
		Persister: persister,
		Publisher: publisher,
		Clock:     clock,
	}, cfg)
}

func TestPipeline_EndToEnd(t *testing.T) {
	clock := newFakeClock()
	mem := storage.NewMemoryStorage()
	store := storage.NewDatasetStore(mem, "").WithClock(clock.Now)
	publisher := &recordingPublisher{}
	fake := scenarioAPI()

	p := newScenarioPipeline(fake, store, publisher, clock)
	report, err := p.Run(context.Background(), []string{"generator", "creator", "blank"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ds := report.Dataset
	if ds.Len() != 2 {
		t.Fatalf("expected 2 keywords with data, got %d (%v)", ds.Len(), ds.Order)
	}
	gen := ds.Results["generator"].Entries
	if len(gen) != 1 || gen[0].Query != "ai generator" || gen[0].Display != "+120%" || gen[0].Rank != 1 {
		t.Errorf("unexpected generator entries %+v", gen)
	}
	cre := ds.Results["creator"].Entries
	if len(cre) != 1 || cre[0].Display != "BREAKOUT" {
		t.Errorf("unexpected creator entries %+v", cre)
	}
	if _, ok := ds.Results["blank"]; ok {
		t.Error("keyword with empty rising list must be absent")
	}
	if ds.Order[0] != "generator" || ds.Order[1] != "creator" {
		t.Errorf("unexpected order %v", ds.Order)
	}

	s := report.Summary
	if s.TotalSeeds != 3 || s.Submitted != 3 || s.Fetched != 3 || s.KeywordsWithData != 2 || s.TotalEntries != 2 {
		t.Errorf("unexpected summary %+v", s)
	}
	if s.RunID == "" || report.Poll.Cycles != 2 {
		t.Errorf("unexpected run metadata %+v / %+v", s, report.Poll)
	}

	post, ready, get := fake.calls()
	if post != 3 || ready != 2 || get != 3 {
		t.Errorf("unexpected call counts post=%d ready=%d get=%d", post, ready, get)
	}
	if grants := p.Limiter().Stats().TotalGrants; grants != 8 {
		t.Errorf("expected every remote call to pass the limiter, got %d grants", grants)
	}

	site, err := store.LoadWebsite(context.Background())
	if err != nil {
		t.Fatalf("website dataset not persisted: %v", err)
	}
	if len(site.Data) != 2 || site.TotalQueries != 2 || site.TotalSeeds != 3 {
		t.Errorf("unexpected website dataset %+v", site)
	}
	if exists, _ := mem.Exists(context.Background(), report.Files.ReportKey); !exists {
		t.Errorf("report %s not written", report.Files.ReportKey)
	}
	if len(publisher.sites) != 1 || len(publisher.sites[0].Data) != 2 {
		t.Errorf("publisher not called with the dataset: %+v", publisher.sites)
	}
}

func TestPipeline_PersistFailureIsFatal(t *testing.T) {
	p := newScenarioPipeline(scenarioAPI(), failingPersister{}, nil, newFakeClock())
	if _, err := p.Run(context.Background(), []string{"generator"}); err == nil {
		t.Fatal("expected persistence failure to be returned")
	}
}

func TestPipeline_PublishFailureIsNotFatal(t *testing.T) {
	clock := newFakeClock()
	store := storage.NewDatasetStore(storage.NewMemoryStorage(), "").WithClock(clock.Now)
	publisher := &recordingPublisher{err: errors.New("collector down")}

	p := newScenarioPipeline(scenarioAPI(), store, publisher, clock)
	if _, err := p.Run(context.Background(), []string{"generator"}); err != nil {
		t.Fatalf("publish failure must not fail the run: %v", err)
	}
}

func TestPipeline_PartialCompletion(t *testing.T) {
	clock := newFakeClock()
	fake := scenarioAPI()
	fake.readyFn = func(call int) ([]string, error) {
		return []string{"t1"}, nil
	}
	store := storage.NewDatasetStore(storage.NewMemoryStorage(), "").WithClock(clock.Now)

	cfg := Config{TimeRange: "past_7_days", Poll: PollerConfig{Interval: 15 * time.Second, MaxWait: time.Minute}}
	p := New(Deps{
		Client:    fake,
		Extractor: extractor.NewRisingExtractor(0, cfg.TimeRange, extractor.NewLinkBuilder("", "")),
		Scores:    keywords.NewScoreTable(nil),
		Persister: store,
		Clock:     clock,
	}, cfg)

	report, err := p.Run(context.Background(), []string{"generator", "creator"})
	if err != nil {
		t.Fatal(err)
	}
	if report.Summary.Abandoned != 1 || report.Summary.KeywordsWithData != 1 || report.Summary.CompletionRate != "50.0%" {
		t.Errorf("unexpected summary %+v", report.Summary)
	}
}

func TestPipeline_DuplicateSeedsSubmittedOnce(t *testing.T) {
	clock := newFakeClock()
	store := storage.NewDatasetStore(storage.NewMemoryStorage(), "").WithClock(clock.Now)
	fake := scenarioAPI()

	p := newScenarioPipeline(fake, store, nil, clock)
	report, err := p.Run(context.Background(), []string{"generator", "creator", "generator"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if post, _, _ := fake.calls(); post != 2 {
		t.Errorf("expected 2 post calls, got %d", post)
	}
	if len(report.Tasks) != 2 || report.Tasks[0].Keyword != "generator" || report.Tasks[1].Keyword != "creator" {
		t.Errorf("unexpected tasks %+v", report.Tasks)
	}
	if report.Summary.TotalSeeds != 2 || report.Summary.Submitted != 2 {
		t.Errorf("unexpected summary %+v", report.Summary)
	}
}

func TestUniqueKeywords(t *testing.T) {
	got := uniqueKeywords([]string{"tool", "maker", "tool", "ai", "maker"})
	want := []string{"tool", "maker", "ai"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

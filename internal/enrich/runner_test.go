package enrich_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/auditlog"
	"memoryatlas/internal/config"
	"memoryatlas/internal/enrich"
	"memoryatlas/internal/enrich/mocks"
	"memoryatlas/internal/logging"
	"memoryatlas/internal/testsupport"
)

const validReply = `Sure! {"summary":"Garden plans.","topics":["garden","seeds"],"people":"none","sentiment":"positive"} Hope that helps.`

type RunnerTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	completer *mocks.MockCompleter
	cfg       *config.Config
	store     *assets.Store
	runner    *enrich.Runner
}

func (s *RunnerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.completer = mocks.NewMockCompleter(s.ctrl)
	s.cfg = testsupport.NewConfig(s.T())
	s.store = testsupport.MustOpenStore(s.T(), s.cfg)

	trail, err := auditlog.Open(s.cfg.Paths.JSONLPath)
	s.Require().NoError(err)
	s.runner = enrich.NewRunner(s.cfg, s.store, s.completer, trail, logging.NewNop())
}

func (s *RunnerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestRunnerTestSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}

func (s *RunnerTestSuite) origin() assets.Origin {
	return assets.Origin{Command: "enrich", RunID: "run-2"}
}

// transcribed seeds a done asset with text as its transcript; "-" leaves the
// transcript file absent.
func (s *RunnerTestSuite) transcribed(id string, duration float64, text string) {
	ctx := context.Background()
	testsupport.MustUpsert(s.T(), s.store, testsupport.NewCandidate(id, duration))
	path := filepath.Join(s.cfg.Paths.TranscriptsDir, id+".txt")
	if text != "-" {
		testsupport.WriteText(s.T(), path, text)
	}
	s.Require().NoError(s.store.MarkRunning(ctx, s.origin(), id))
	s.Require().NoError(s.store.MarkTranscribed(ctx, s.origin(), id, assets.TranscriptOutput{Model: "m", Language: "en", Path: path}))
}

func (s *RunnerTestSuite) TestRun_SavesEnrichment() {
	s.transcribed("memo", 30, "We should plant tomatoes this weekend.")
	s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			s.Contains(prompt, "We should plant tomatoes this weekend.")
			return validReply, nil
		})

	counts, err := s.runner.Run(context.Background(), enrich.Options{Origin: s.origin()})
	s.Require().NoError(err)
	s.Equal(1, counts.Done)

	got := testsupport.MustGet(s.T(), s.store, "memo")
	s.Equal("Garden plans.", got.Summary)
	s.Equal("garden, seeds", got.Topics)
	s.Equal("none", got.People)
	s.Equal("positive", got.Sentiment)
	s.NotEmpty(got.EnrichedAt)
	s.Empty(got.EnrichError)
}

func (s *RunnerTestSuite) TestRun_FailureReasons() {
	s.transcribed("a-missing", 10, "-")
	s.transcribed("b-empty", 20, "   ")
	s.transcribed("c-llm", 30, "llm will fail")
	s.transcribed("d-json", 40, "llm will ramble")
	s.transcribed("e-blank", 50, "llm says nothing")

	gomock.InOrder(
		s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", errors.New("connection refused")),
		s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("I cannot help with that.", nil),
		s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("  ", nil),
	)

	counts, err := s.runner.Run(context.Background(), enrich.Options{Origin: s.origin()})
	s.Require().NoError(err)
	s.Equal(5, counts.Failed)
	s.Equal(0, counts.Done)

	want := map[string]string{
		"a-missing": enrich.ReasonTranscriptMissing,
		"b-empty":   enrich.ReasonEmptyTranscript,
		"c-llm":     enrich.ReasonLLMFailed,
		"d-json":    enrich.ReasonInvalidJSON,
		"e-blank":   enrich.ReasonLLMFailed,
	}
	for id, reason := range want {
		got := testsupport.MustGet(s.T(), s.store, id)
		s.Equal(reason, got.EnrichError, id)
		s.Empty(got.Summary, id)
	}

	// Failed records stay eligible.
	remaining, err := s.store.EnrichmentCandidates(context.Background(), 0)
	s.Require().NoError(err)
	s.Len(remaining, 5)
}

func (s *RunnerTestSuite) TestRun_OneFailureDoesNotStopBatch() {
	s.transcribed("first", 10, "first memo")
	s.transcribed("second", 20, "second memo")
	s.transcribed("third", 30, "third memo")

	gomock.InOrder(
		s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(validReply, nil),
		s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", errors.New("model crashed")),
		s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(validReply, nil),
	)

	counts, err := s.runner.Run(context.Background(), enrich.Options{Origin: s.origin()})
	s.Require().NoError(err)
	s.Equal(2, counts.Done)
	s.Equal(1, counts.Failed)

	s.Equal("Garden plans.", testsupport.MustGet(s.T(), s.store, "first").Summary)
	failed := testsupport.MustGet(s.T(), s.store, "second")
	s.Empty(failed.Summary)
	s.Equal(enrich.ReasonLLMFailed, failed.EnrichError)
	s.Equal("Garden plans.", testsupport.MustGet(s.T(), s.store, "third").Summary)
}

func (s *RunnerTestSuite) TestRun_TruncatesLongTranscript() {
	s.cfg.Enrichment.MaxTranscriptChars = 50
	s.transcribed("long", 30, strings.Repeat("word ", 100))
	s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			s.Contains(prompt, enrich.TruncationMarker)
			return validReply, nil
		})

	counts, err := s.runner.Run(context.Background(), enrich.Options{Origin: s.origin()})
	s.Require().NoError(err)
	s.Equal(1, counts.Done)
}

func (s *RunnerTestSuite) TestRun_DryRunCallsNothing() {
	s.transcribed("memo", 30, "text")

	counts, err := s.runner.Run(context.Background(), enrich.Options{DryRun: true, Origin: s.origin()})
	s.Require().NoError(err)
	s.Equal(1, counts.Selected)
	s.Equal(0, counts.Done)
	s.Empty(testsupport.MustGet(s.T(), s.store, "memo").Summary)
}

func (s *RunnerTestSuite) TestRun_ModelOverrideUsesSelector() {
	selector := &selectingCompleter{MockCompleter: s.completer}
	runner := enrich.NewRunner(s.cfg, s.store, selector, nil, logging.NewNop())
	s.transcribed("memo", 30, "text")
	s.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(validReply, nil)

	_, err := runner.Run(context.Background(), enrich.Options{Model: "llama3.3:70b", Origin: s.origin()})
	s.Require().NoError(err)
	s.Equal([]string{"llama3.3:70b"}, selector.models)
}

func (s *RunnerTestSuite) TestRun_SkipsAlreadyEnriched() {
	s.transcribed("done", 30, "text")
	s.Require().NoError(s.store.SaveEnrichment(context.Background(), s.origin(), "done", assets.Enrichment{Summary: "x"}))

	counts, err := s.runner.Run(context.Background(), enrich.Options{Origin: s.origin()})
	s.Require().NoError(err)
	s.Equal(0, counts.Selected)
}

type selectingCompleter struct {
	*mocks.MockCompleter
	models []string
}

func (c *selectingCompleter) ForModel(model string) enrich.Completer {
	c.models = append(c.models, model)
	return c.MockCompleter
}

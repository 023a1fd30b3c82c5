package game

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"blackjack-service/internal/config"
	"blackjack-service/internal/engine"
	"blackjack-service/internal/model"
	appErr "blackjack-service/pkg/errors"
	"blackjack-service/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("debug")
	os.Exit(m.Run())
}

type fakeRecorder struct {
	records []*model.RoundRecord
	err     error
}

func (f *fakeRecorder) RecordRound(ctx context.Context, rec *model.RoundRecord) error {
	f.records = append(f.records, rec)
	return f.err
}

func newTestService(recorder Recorder) *Service {
	return NewService(config.GameConfig{StartingBalance: 1000, DealerStepDelayMs: 500}, recorder)
}

// standUntilSettled stands the active hand repeatedly. The cards are random,
// so tests that only care about the settlement flow drive the round this way.
func standUntilSettled(t *testing.T, svc *Service, state GameState) GameState {
	t.Helper()
	for state.Phase != engine.PhaseSettled {
		next, err := svc.Stand(context.Background(), state.ActiveHand)
		if err != nil {
			t.Fatalf("stand failed in phase %s: %v", state.Phase, err)
		}
		state = next
	}
	return state
}

func containsAction(actions []string, want string) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}

func TestInitialState(t *testing.T) {
	svc := newTestService(nil)
	state := svc.State(context.Background())

	if state.Phase != engine.PhaseBetting {
		t.Fatalf("expected betting phase, got %s", state.Phase)
	}
	if state.Balance != 1000 || state.PendingBet != 0 {
		t.Fatalf("expected balance=1000 pending=0, got %d/%d", state.Balance, state.PendingBet)
	}
	if state.RoundID == "" {
		t.Fatal("round id missing")
	}
	if state.StepDelayMs != 500 {
		t.Fatalf("expected stepDelayMs=500, got %d", state.StepDelayMs)
	}
	if !containsAction(state.AllowedActions, "bet") || containsAction(state.AllowedActions, "deal") {
		t.Fatalf("unexpected allowed actions before betting: %v", state.AllowedActions)
	}
}

func TestPlaceBetUpdatesStateAndActions(t *testing.T) {
	svc := newTestService(nil)

	state, err := svc.PlaceBet(context.Background(), 100)
	if err != nil {
		t.Fatalf("place bet failed: %v", err)
	}
	if state.Balance != 900 || state.PendingBet != 100 {
		t.Fatalf("expected balance=900 pending=100, got %d/%d", state.Balance, state.PendingBet)
	}
	if !containsAction(state.AllowedActions, "deal") || !containsAction(state.AllowedActions, "clear_bet") {
		t.Fatalf("deal and clear_bet should unlock with a pending bet: %v", state.AllowedActions)
	}
	if len(state.Logs) == 0 {
		t.Fatal("expected a log entry for the bet")
	}
}

func TestPlaceBetErrorLeavesStateUntouched(t *testing.T) {
	svc := newTestService(nil)

	if _, err := svc.PlaceBet(context.Background(), 5000); !errors.Is(err, appErr.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	state := svc.State(context.Background())
	if state.Balance != 1000 || state.PendingBet != 0 {
		t.Fatalf("state changed on rejected bet: %d/%d", state.Balance, state.PendingBet)
	}
}

func TestDealHidesHoleCard(t *testing.T) {
	svc := newTestService(nil)

	if _, err := svc.PlaceBet(context.Background(), 100); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}
	state, err := svc.Deal(context.Background())
	if err != nil {
		t.Fatalf("deal failed: %v", err)
	}

	if state.Phase == engine.PhasePlayerTurn {
		if !state.Dealer.HoleHidden {
			t.Fatal("hole card should be flagged hidden during the player turn")
		}
		if len(state.Dealer.Cards) != 1 {
			t.Fatalf("only the upcard should be exported while hidden, got %d cards", len(state.Dealer.Cards))
		}
		if state.Dealer.Value != state.Dealer.Cards[0].valueForTest() {
			t.Fatalf("dealer value must reflect the upcard only, got %d", state.Dealer.Value)
		}
	} else if state.Phase == engine.PhaseSettled {
		// Natural blackjack ran straight to settlement; the hole card shows.
		if state.Dealer.HoleHidden || len(state.Dealer.Cards) != 2 {
			t.Fatalf("settled round must reveal the dealer hand: %+v", state.Dealer)
		}
	} else {
		t.Fatalf("unexpected phase after deal: %s", state.Phase)
	}
}

// valueForTest maps the exported rank back to its card value.
func (c CardView) valueForTest() int {
	h := engine.NewHand(0)
	h.AddCard(engine.Card{Suit: engine.Suit(c.Suit), Rank: engine.Rank(c.Rank)})
	return h.Value()
}

func TestDealWithoutBetRejected(t *testing.T) {
	svc := newTestService(nil)

	if _, err := svc.Deal(context.Background()); !errors.Is(err, appErr.ErrEmptyBetDeal) {
		t.Fatalf("expected ErrEmptyBetDeal, got %v", err)
	}
}

func TestSettledRoundRecordedOnce(t *testing.T) {
	rec := &fakeRecorder{}
	svc := newTestService(rec)

	state, err := svc.PlaceBet(context.Background(), 100)
	if err != nil {
		t.Fatalf("place bet failed: %v", err)
	}
	state, err = svc.Deal(context.Background())
	if err != nil {
		t.Fatalf("deal failed: %v", err)
	}
	state = standUntilSettled(t, svc, state)

	if len(rec.records) != 1 {
		t.Fatalf("expected exactly one recorded round, got %d", len(rec.records))
	}
	record := rec.records[0]
	if record.RoundID != state.RoundID {
		t.Fatalf("record round id %s does not match state %s", record.RoundID, state.RoundID)
	}
	if record.HandCount != len(state.Hands) {
		t.Fatalf("expected handCount=%d, got %d", len(state.Hands), record.HandCount)
	}
	if record.TotalBet != 100 {
		t.Fatalf("expected totalBet=100, got %d", record.TotalBet)
	}
	if len(record.ResultsJSON) == 0 {
		t.Fatal("results json missing")
	}

	// Starting the next game must not record the settled round again.
	svc.NewGame(context.Background())
	if len(rec.records) != 1 {
		t.Fatalf("round recorded twice, got %d records", len(rec.records))
	}
}

func TestRecorderFailureDoesNotBlockSettlement(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("db down")}
	svc := newTestService(rec)

	state, err := svc.PlaceBet(context.Background(), 100)
	if err != nil {
		t.Fatalf("place bet failed: %v", err)
	}
	state, err = svc.Deal(context.Background())
	if err != nil {
		t.Fatalf("deal failed: %v", err)
	}
	state = standUntilSettled(t, svc, state)

	if state.Phase != engine.PhaseSettled {
		t.Fatalf("settlement must survive a recorder failure, got %s", state.Phase)
	}
	if len(state.Results) == 0 {
		t.Fatal("expected settlement results")
	}
}

func TestDealStartsNewRoundID(t *testing.T) {
	svc := newTestService(nil)

	first := svc.State(context.Background()).RoundID
	if _, err := svc.PlaceBet(context.Background(), 100); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}
	state, err := svc.Deal(context.Background())
	if err != nil {
		t.Fatalf("deal failed: %v", err)
	}
	if state.RoundID == first {
		t.Fatal("deal should mint a fresh round id")
	}
}

func TestNewGameResetsLogsKeepsBalance(t *testing.T) {
	svc := newTestService(nil)

	if _, err := svc.PlaceBet(context.Background(), 200); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}
	state := svc.NewGame(context.Background())

	if state.Phase != engine.PhaseBetting {
		t.Fatalf("expected betting, got %s", state.Phase)
	}
	// The composed bet is forfeited, not refunded.
	if state.Balance != 800 || state.PendingBet != 0 {
		t.Fatalf("expected balance=800 pending=0, got %d/%d", state.Balance, state.PendingBet)
	}
	if len(state.Logs) != 1 || state.Logs[0].Content != "new game started" {
		t.Fatalf("expected a single fresh log entry, got %+v", state.Logs)
	}
}

func TestSubscribeReceivesStateStream(t *testing.T) {
	svc := newTestService(nil)

	id, ch := svc.Subscribe()
	defer svc.Unsubscribe(id)

	initial := <-ch
	if initial.Type != "state" {
		t.Fatalf("expected initial state message, got %q", initial.Type)
	}
	initialState, ok := initial.Data.(GameState)
	if !ok {
		t.Fatalf("unexpected payload type %T", initial.Data)
	}
	if initialState.Balance != 1000 {
		t.Fatalf("expected balance=1000 in initial push, got %d", initialState.Balance)
	}

	if _, err := svc.PlaceBet(context.Background(), 100); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}
	update := <-ch
	if update.Seq <= initial.Seq {
		t.Fatalf("sequence must increase, got %d after %d", update.Seq, initial.Seq)
	}
	updateState := update.Data.(GameState)
	if updateState.PendingBet != 100 {
		t.Fatalf("expected pending=100 in broadcast, got %d", updateState.PendingBet)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	svc := newTestService(nil)

	id, ch := svc.Subscribe()
	<-ch
	svc.Unsubscribe(id)

	if _, open := <-ch; open {
		t.Fatal("channel should be closed after unsubscribe")
	}

	// Commands after unsubscribe must not panic on the removed channel.
	if _, err := svc.PlaceBet(context.Background(), 100); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}
}

func TestHandleActionDispatch(t *testing.T) {
	svc := newTestService(nil)

	payload := json.RawMessage(`{"amount":150}`)
	if err := svc.HandleAction(context.Background(), 0, "bet", payload); err != nil {
		t.Fatalf("bet action failed: %v", err)
	}
	state := svc.State(context.Background())
	if state.PendingBet != 150 {
		t.Fatalf("expected pending=150, got %d", state.PendingBet)
	}

	if err := svc.HandleAction(context.Background(), 0, "clear_bet", nil); err != nil {
		t.Fatalf("clear_bet action failed: %v", err)
	}
	if got := svc.State(context.Background()).PendingBet; got != 0 {
		t.Fatalf("expected pending=0, got %d", got)
	}
}

func TestHandleActionUnknownRejected(t *testing.T) {
	svc := newTestService(nil)

	err := svc.HandleAction(context.Background(), 0, "surrender", nil)
	if !errors.Is(err, appErr.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestHandleActionPingAnswersSubscriber(t *testing.T) {
	svc := newTestService(nil)

	id, ch := svc.Subscribe()
	defer svc.Unsubscribe(id)
	<-ch

	if err := svc.HandleAction(context.Background(), id, "ping", nil); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	msg := <-ch
	if msg.Type != "pong" {
		t.Fatalf("expected pong, got %q", msg.Type)
	}
}

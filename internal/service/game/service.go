package game

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"blackjack-service/internal/config"
	"blackjack-service/internal/engine"
	"blackjack-service/internal/model"
	appErr "blackjack-service/pkg/errors"
	"blackjack-service/pkg/logger"
	"blackjack-service/pkg/utils/random"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Recorder persists a settled round. Implemented by the history service.
type Recorder interface {
	RecordRound(ctx context.Context, rec *model.RoundRecord) error
}

// Service wraps one engine round behind a mutex and exposes the command/query
// boundary the front ends drive: HTTP handlers and websocket clients call in,
// subscribers get versioned state snapshots pushed out. One Service instance
// per game; no concurrent rounds exist.
type Service struct {
	mu sync.Mutex

	cfg     config.GameConfig
	roundID string
	round   *engine.Round
	logs    []LogItem
	seq     int64

	subscribers map[int64]chan OutgoingMessage
	nextSubID   int64

	recorder Recorder
	recorded bool
}

func NewService(cfg config.GameConfig, recorder Recorder) *Service {
	rng := rand.New(rand.NewSource(random.Seed()))
	return &Service{
		cfg:         cfg,
		roundID:     uuid.NewString(),
		round:       engine.NewRound(engine.NewBankroll(cfg.StartingBalance), rng),
		subscribers: make(map[int64]chan OutgoingMessage),
		recorder:    recorder,
	}
}

// Subscribe registers a state stream. The current state is pushed immediately.
func (s *Service) Subscribe() (int64, chan OutgoingMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	ch := make(chan OutgoingMessage, 8)
	s.subscribers[id] = ch
	s.pushMessageLocked(id, OutgoingMessage{Type: "state", Seq: s.nextSeqLocked(), Data: s.exportStateLocked()})
	return id, ch
}

func (s *Service) Unsubscribe(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subscribers[id]; ok {
		delete(s.subscribers, id)
		close(ch)
	}
}

func (s *Service) State(ctx context.Context) GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportStateLocked()
}

func (s *Service) PlaceBet(ctx context.Context, amount int64) (GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.round.PlaceBet(amount); err != nil {
		return GameState{}, err
	}
	s.appendLogLocked(fmt.Sprintf("bet raised to %d", s.round.PendingBet()))
	return s.finishCommandLocked(ctx), nil
}

func (s *Service) ClearBet(ctx context.Context) (GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.round.ClearBet(); err != nil {
		return GameState{}, err
	}
	s.appendLogLocked("bet cleared")
	return s.finishCommandLocked(ctx), nil
}

func (s *Service) Deal(ctx context.Context) (GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.round.Deal(); err != nil {
		return GameState{}, err
	}
	s.roundID = uuid.NewString()
	s.recorded = false
	s.appendLogLocked("cards dealt")
	return s.finishCommandLocked(ctx), nil
}

func (s *Service) Hit(ctx context.Context, handIndex int) (GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.round.Hit(handIndex); err != nil {
		return GameState{}, err
	}
	return s.finishCommandLocked(ctx), nil
}

func (s *Service) Stand(ctx context.Context, handIndex int) (GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.round.Stand(handIndex); err != nil {
		return GameState{}, err
	}
	return s.finishCommandLocked(ctx), nil
}

func (s *Service) Double(ctx context.Context, handIndex int) (GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.round.Double(handIndex); err != nil {
		return GameState{}, err
	}
	s.appendLogLocked(fmt.Sprintf("hand %d doubled down", handIndex+1))
	return s.finishCommandLocked(ctx), nil
}

func (s *Service) Split(ctx context.Context, handIndex int) (GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.round.Split(handIndex); err != nil {
		return GameState{}, err
	}
	s.appendLogLocked(fmt.Sprintf("hand %d split", handIndex+1))
	return s.finishCommandLocked(ctx), nil
}

func (s *Service) NewGame(ctx context.Context) GameState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.round.NewGame()
	s.roundID = uuid.NewString()
	s.recorded = false
	s.logs = nil
	s.appendLogLocked("new game started")
	return s.finishCommandLocked(ctx)
}

// HandleAction dispatches a websocket action frame to the matching command.
func (s *Service) HandleAction(ctx context.Context, subID int64, action string, data json.RawMessage) error {
	switch action {
	case "bet":
		var payload struct {
			Amount int64 `json:"amount"`
		}
		if len(data) > 0 {
			_ = json.Unmarshal(data, &payload)
		}
		_, err := s.PlaceBet(ctx, payload.Amount)
		return err
	case "clear_bet":
		_, err := s.ClearBet(ctx)
		return err
	case "deal":
		_, err := s.Deal(ctx)
		return err
	case "hit", "stand", "double", "split":
		var payload struct {
			Hand int `json:"hand"`
		}
		if len(data) > 0 {
			_ = json.Unmarshal(data, &payload)
		}
		var err error
		switch action {
		case "hit":
			_, err = s.Hit(ctx, payload.Hand)
		case "stand":
			_, err = s.Stand(ctx, payload.Hand)
		case "double":
			_, err = s.Double(ctx, payload.Hand)
		case "split":
			_, err = s.Split(ctx, payload.Hand)
		}
		return err
	case "new_game":
		s.NewGame(ctx)
		return nil
	case "ping":
		s.mu.Lock()
		defer s.mu.Unlock()
		s.pushMessageLocked(subID, OutgoingMessage{Type: "pong", Seq: s.nextSeqLocked(), Data: map[string]string{"message": "pong"}})
		return nil
	default:
		return fmt.Errorf("%w: unsupported action %q", appErr.ErrInvalidAction, action)
	}
}

// finishCommandLocked runs after every successful command: records the round
// when it just settled, then broadcasts and returns the fresh snapshot.
func (s *Service) finishCommandLocked(ctx context.Context) GameState {
	if s.round.Phase() == engine.PhaseSettled && !s.recorded {
		s.recordRoundLocked(ctx)
	}
	s.broadcastStateLocked()
	return s.exportStateLocked()
}

func (s *Service) recordRoundLocked(ctx context.Context) {
	s.recorded = true

	results := s.round.Results()
	var totalBet, totalPayout int64
	views := make([]ResultView, 0, len(results))
	for _, res := range results {
		totalBet += res.Bet
		totalPayout += res.Payout
		view := resultView(res)
		views = append(views, view)
		s.appendLogLocked(view.Message)
	}

	if s.recorder == nil {
		return
	}

	dealer := s.round.Dealer()
	rec := &model.RoundRecord{
		RoundID:         s.roundID,
		HandCount:       len(results),
		TotalBet:        totalBet,
		TotalPayout:     totalPayout,
		DealerValue:     dealer.Value(),
		DealerBlackjack: dealer.IsBlackjack(),
		DealerBusted:    dealer.IsBust(),
		ResultsJSON:     mustJSON(views),
		CreatedAt:       time.Now(),
	}
	if err := s.recorder.RecordRound(ctx, rec); err != nil {
		logger.Log.Error("failed to record round",
			zap.Error(err),
			zap.String("roundID", s.roundID),
		)
	}
}

func resultView(res engine.HandResult) ResultView {
	var msg string
	switch res.Outcome {
	case engine.OutcomeBlackjack:
		msg = fmt.Sprintf("hand %d: blackjack, paid %d", res.HandIndex+1, res.Payout)
	case engine.OutcomeWin:
		msg = fmt.Sprintf("hand %d: won, paid %d", res.HandIndex+1, res.Payout)
	case engine.OutcomePush:
		msg = fmt.Sprintf("hand %d: push, bet %d returned", res.HandIndex+1, res.Bet)
	default:
		msg = fmt.Sprintf("hand %d: lost %d", res.HandIndex+1, res.Bet)
	}
	return ResultView{
		HandIndex: res.HandIndex,
		Outcome:   string(res.Outcome),
		Bet:       res.Bet,
		Payout:    res.Payout,
		Message:   msg,
	}
}

func (s *Service) exportStateLocked() GameState {
	round := s.round

	hands := make([]HandView, 0, len(round.Hands()))
	for _, h := range round.Hands() {
		hands = append(hands, handView(h))
	}

	dealer := round.Dealer()
	dealerView := DealerView{HoleHidden: round.HoleHidden()}
	if round.HoleHidden() && len(dealer.Cards) > 1 {
		upcard := dealer.Cards[0]
		dealerView.Cards = []CardView{cardView(upcard)}
		dealerView.Value = upcard.Value()
	} else {
		dealerView.Cards = cardViews(dealer.Cards)
		dealerView.Value = dealer.Value()
	}

	steps := make([]DealerStepView, 0, len(round.DealerSteps()))
	for _, step := range round.DealerSteps() {
		steps = append(steps, DealerStepView{Card: cardView(step.Card), Value: step.Value})
	}

	var results []ResultView
	for _, res := range round.Results() {
		results = append(results, resultView(res))
	}

	return GameState{
		RoundID:        s.roundID,
		Phase:          round.Phase(),
		Balance:        round.Balance(),
		PendingBet:     round.PendingBet(),
		ActiveHand:     round.ActiveHandIndex(),
		Dealer:         dealerView,
		Hands:          hands,
		DealerSteps:    steps,
		Results:        results,
		AllowedActions: s.allowedActionsLocked(),
		StepDelayMs:    s.cfg.DealerStepDelayMs,
		Logs:           append([]LogItem(nil), s.logs...),
	}
}

func (s *Service) allowedActionsLocked() []string {
	round := s.round
	switch round.Phase() {
	case engine.PhaseBetting:
		actions := []string{"bet", "new_game"}
		if round.PendingBet() > 0 {
			actions = append(actions, "clear_bet", "deal")
		}
		return actions
	case engine.PhasePlayerTurn:
		actions := []string{"hit", "stand", "new_game"}
		hands := round.Hands()
		if idx := round.ActiveHandIndex(); idx < len(hands) {
			hand := hands[idx]
			if hand.CanDouble() && round.Balance() >= hand.Bet {
				actions = append(actions, "double")
			}
			if hand.CanSplit() && round.Balance() >= hand.Bet {
				actions = append(actions, "split")
			}
		}
		return actions
	case engine.PhaseSettled:
		return []string{"bet", "new_game"}
	default:
		return []string{"new_game"}
	}
}

func (s *Service) broadcastStateLocked() {
	state := s.exportStateLocked()
	seq := s.nextSeqLocked()
	for id, ch := range s.subscribers {
		msg := OutgoingMessage{Type: "state", Seq: seq, Data: state}
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("subscriber channel full, dropping state", zap.Int64("subID", id))
		}
	}
}

func (s *Service) pushMessageLocked(id int64, msg OutgoingMessage) {
	if ch, ok := s.subscribers[id]; ok {
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("subscriber channel full, dropping message", zap.Int64("subID", id))
		}
	}
}

func (s *Service) nextSeqLocked() int64 {
	s.seq++
	return s.seq
}

func (s *Service) appendLogLocked(content string) {
	s.logs = append(s.logs, LogItem{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		Content:   content,
	})
}

func mustJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("{}")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}

package game

import "blackjack-service/internal/engine"

type CardView struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

type HandView struct {
	Cards     []CardView `json:"cards"`
	Value     int        `json:"value"`
	Bet       int64      `json:"bet"`
	Active    bool       `json:"active"`
	Doubled   bool       `json:"doubled"`
	Blackjack bool       `json:"blackjack"`
	Busted    bool       `json:"busted"`
	CanSplit  bool       `json:"canSplit"`
	CanDouble bool       `json:"canDouble"`
}

// DealerView masks the hole card while it is hidden: only the upcard and its
// value are exported, with HoleHidden flagging that a second card exists.
type DealerView struct {
	Cards      []CardView `json:"cards"`
	HoleHidden bool       `json:"holeHidden"`
	Value      int        `json:"value"`
}

type DealerStepView struct {
	Card  CardView `json:"card"`
	Value int      `json:"value"`
}

type ResultView struct {
	HandIndex int    `json:"handIndex"`
	Outcome   string `json:"outcome"`
	Bet       int64  `json:"bet"`
	Payout    int64  `json:"payout"`
	Message   string `json:"message"`
}

type LogItem struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Content   string `json:"content"`
}

type GameState struct {
	RoundID        string           `json:"roundId"`
	Phase          engine.Phase     `json:"phase"`
	Balance        int64            `json:"balance"`
	PendingBet     int64            `json:"pendingBet"`
	ActiveHand     int              `json:"activeHand"`
	Dealer         DealerView       `json:"dealer"`
	Hands          []HandView       `json:"hands"`
	DealerSteps    []DealerStepView `json:"dealerSteps,omitempty"`
	Results        []ResultView     `json:"results,omitempty"`
	AllowedActions []string         `json:"allowedActions"`
	StepDelayMs    int              `json:"stepDelayMs"`
	Logs           []LogItem        `json:"logs"`
}

type OutgoingMessage struct {
	Type string      `json:"type"`
	Seq  int64       `json:"seq"`
	Data interface{} `json:"data"`
}

func cardView(c engine.Card) CardView {
	return CardView{Suit: string(c.Suit), Rank: string(c.Rank)}
}

func cardViews(cards []engine.Card) []CardView {
	views := make([]CardView, len(cards))
	for i, c := range cards {
		views[i] = cardView(c)
	}
	return views
}

func handView(h *engine.Hand) HandView {
	return HandView{
		Cards:     cardViews(h.Cards),
		Value:     h.Value(),
		Bet:       h.Bet,
		Active:    h.Active,
		Doubled:   h.Doubled,
		Blackjack: h.IsBlackjack(),
		Busted:    h.IsBust(),
		CanSplit:  h.CanSplit(),
		CanDouble: h.CanDouble(),
	}
}

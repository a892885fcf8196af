// backend/src/processors/trade_matcher.go
package processors

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/utils"
)

// OrphanPolicy decides what happens to a closing fill with no opposite open lot.
type OrphanPolicy string

const (
	// OrphanCarry keeps the unmatched remainder as an open position on its own side.
	OrphanCarry OrphanPolicy = "carry"
	// OrphanDiscard drops the unmatched remainder.
	OrphanDiscard OrphanPolicy = "discard"
)

// ParseOrphanPolicy validates a configuration value. Empty means OrphanCarry.
func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch OrphanPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrphanCarry:
		return OrphanCarry, nil
	case OrphanDiscard:
		return OrphanDiscard, nil
	}
	return "", fmt.Errorf("unknown orphan policy %q (want carry or discard)", s)
}

// MatcherOptions configures a TradeMatcher.
type MatcherOptions struct {
	ScratchThreshold decimal.Decimal
	OrphanPolicy     OrphanPolicy
	MergeFragments   bool // One trade per closing fill instead of one per matched lot
}

func DefaultMatcherOptions() MatcherOptions {
	return MatcherOptions{
		ScratchThreshold: decimal.Zero,
		OrphanPolicy:     OrphanCarry,
		MergeFragments:   true,
	}
}

type tradeMatcherImpl struct {
	opts MatcherOptions
}

func NewTradeMatcher(opts MatcherOptions) TradeMatcher {
	if opts.OrphanPolicy == "" {
		opts.OrphanPolicy = OrphanCarry
	}
	if opts.ScratchThreshold.IsNegative() {
		opts.ScratchThreshold = opts.ScratchThreshold.Abs()
	}
	return &tradeMatcherImpl{opts: opts}
}

// openLot is the unmatched part of an opening fill (or a carried orphan remainder).
type openLot struct {
	symbol      string
	side        models.Side
	action      models.Action
	openedAt    time.Time
	price       decimal.Decimal
	originalQty int64
	remaining   int64
	fees        decimal.Decimal // Fees attributable to originalQty
	feesLeft    decimal.Decimal
	fingerprint string
}

// takeFees returns the lot's share of fees for qty and consumes it. The last slice takes
// whatever is left so allocations always add up to the lot's fees.
func (l *openLot) takeFees(qty int64) decimal.Decimal {
	if qty >= l.remaining {
		f := l.feesLeft
		l.feesLeft = decimal.Zero
		return f
	}
	f := l.fees.Mul(decimal.NewFromInt(qty)).DivRound(decimal.NewFromInt(l.originalQty), moneyPlaces)
	l.feesLeft = l.feesLeft.Sub(f)
	return f
}

// fragment is one lot matched (fully or partially) against a closing fill.
type fragment struct {
	lot  *openLot
	qty  int64
	fees decimal.Decimal // Lot fees allocated to qty
}

// closingFill tracks the part of an execution still to be matched and the part whose
// fees have not been handed out yet.
type closingFill struct {
	exec        models.RawExecution
	remaining   int64
	unallocated int64
	feesLeft    decimal.Decimal
}

func newClosingFill(e models.RawExecution) *closingFill {
	return &closingFill{exec: e, remaining: e.Quantity, unallocated: e.Quantity, feesLeft: e.Fees}
}

func (c *closingFill) takeFees(qty int64) decimal.Decimal {
	if qty >= c.unallocated {
		f := c.feesLeft
		c.feesLeft = decimal.Zero
		c.unallocated = 0
		return f
	}
	f := c.exec.Fees.Mul(decimal.NewFromInt(qty)).DivRound(decimal.NewFromInt(c.exec.Quantity), moneyPlaces)
	c.feesLeft = c.feesLeft.Sub(f)
	c.unallocated -= qty
	return f
}

// symbolBook holds the FIFO queues of one symbol.
type symbolBook struct {
	long  []*openLot
	short []*openLot
}

// Match runs FIFO matching over the whole ledger. It is pure: equal input yields equal output.
func (m *tradeMatcherImpl) Match(executions []models.RawExecution) models.MatchResult {
	result := models.MatchResult{
		Trades:        []models.MatchedTrade{},
		OpenPositions: []models.OpenPosition{},
		Orphans:       []models.Orphan{},
	}

	bySymbol := groupExecutionsBySymbol(executions)
	symbols := make([]string, 0, len(bySymbol))
	for s := range bySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		execs := bySymbol[symbol]
		sortExecutionsChronologically(execs)

		book := &symbolBook{}
		for _, e := range execs {
			trades, orphan := m.apply(book, e)
			result.Trades = append(result.Trades, trades...)
			if orphan != nil {
				result.Orphans = append(result.Orphans, *orphan)
			}
		}

		for _, lot := range append(book.long, book.short...) {
			result.OpenPositions = append(result.OpenPositions, models.OpenPosition{
				Symbol:      lot.symbol,
				Side:        lot.side,
				OpenedAt:    lot.openedAt,
				Price:       lot.price,
				Quantity:    lot.remaining,
				OriginalQty: lot.originalQty,
				Fingerprint: lot.fingerprint,
			})
		}
	}

	sort.SliceStable(result.Trades, func(i, j int) bool {
		a, b := result.Trades[i], result.Trades[j]
		if !a.ExitTime.Equal(b.ExitTime) {
			return a.ExitTime.Before(b.ExitTime)
		}
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.ExitSeq < b.ExitSeq
	})
	sort.SliceStable(result.OpenPositions, func(i, j int) bool {
		a, b := result.OpenPositions[i], result.OpenPositions[j]
		if !a.OpenedAt.Equal(b.OpenedAt) {
			return a.OpenedAt.Before(b.OpenedAt)
		}
		return a.Symbol < b.Symbol
	})
	sort.SliceStable(result.Orphans, func(i, j int) bool {
		a, b := result.Orphans[i], result.Orphans[j]
		if !a.ExecutedAt.Equal(b.ExecutedAt) {
			return a.ExecutedAt.Before(b.ExecutedAt)
		}
		return a.Symbol < b.Symbol
	})

	if len(result.Orphans) > 0 {
		logger.L.Debug("Matching produced orphan fills", "orphans", len(result.Orphans), "policy", m.opts.OrphanPolicy)
	}
	return result
}

// apply feeds one execution into the symbol's book.
func (m *tradeMatcherImpl) apply(book *symbolBook, e models.RawExecution) ([]models.MatchedTrade, *models.Orphan) {
	fill := newClosingFill(e)

	switch e.Action {
	case models.ActionBuy:
		// Buy covers open shorts first, the rest opens a long.
		frags := closeAgainst(&book.short, fill)
		trades := m.buildTrades(models.SideShort, fill, frags)
		if fill.remaining > 0 {
			book.long = append(book.long, newLotFromFill(fill, models.SideLong))
		}
		return trades, nil

	case models.ActionShort:
		book.short = append(book.short, newLotFromFill(fill, models.SideShort))
		return nil, nil

	case models.ActionSell:
		frags := closeAgainst(&book.long, fill)
		trades := m.buildTrades(models.SideLong, fill, frags)
		return trades, m.handleOrphan(book, fill, models.SideShort)

	case models.ActionCover:
		frags := closeAgainst(&book.short, fill)
		trades := m.buildTrades(models.SideShort, fill, frags)
		return trades, m.handleOrphan(book, fill, models.SideLong)
	}

	logger.L.Warn("Skipping execution with unknown action", "symbol", e.Symbol, "action", e.Action, "fingerprint", e.Fingerprint)
	return nil, nil
}

// handleOrphan applies the orphan policy to whatever is left of a closing fill.
func (m *tradeMatcherImpl) handleOrphan(book *symbolBook, fill *closingFill, carrySide models.Side) *models.Orphan {
	if fill.remaining <= 0 {
		return nil
	}
	orphan := &models.Orphan{
		Symbol:      fill.exec.Symbol,
		Action:      fill.exec.Action,
		ExecutedAt:  fill.exec.ExecutedAt(),
		Quantity:    fill.remaining,
		Fingerprint: fill.exec.Fingerprint,
	}
	if m.opts.OrphanPolicy == OrphanCarry {
		lot := newLotFromFill(fill, carrySide)
		if carrySide == models.SideLong {
			book.long = append(book.long, lot)
		} else {
			book.short = append(book.short, lot)
		}
		orphan.CarriedForward = true
	}
	return orphan
}

func newLotFromFill(fill *closingFill, side models.Side) *openLot {
	return &openLot{
		symbol:      fill.exec.Symbol,
		side:        side,
		action:      fill.exec.Action,
		openedAt:    fill.exec.ExecutedAt(),
		price:       fill.exec.Price,
		originalQty: fill.remaining,
		remaining:   fill.remaining,
		fees:        fill.feesLeft,
		feesLeft:    fill.feesLeft,
		fingerprint: fill.exec.Fingerprint,
	}
}

// closeAgainst consumes lots from the head of queue until the fill or the queue runs out.
func closeAgainst(queue *[]*openLot, fill *closingFill) []fragment {
	var frags []fragment
	for fill.remaining > 0 && len(*queue) > 0 {
		lot := (*queue)[0]
		qty := utils.MinInt64(fill.remaining, lot.remaining)

		frags = append(frags, fragment{lot: lot, qty: qty, fees: lot.takeFees(qty)})

		fill.remaining -= qty
		lot.remaining -= qty
		if lot.remaining == 0 {
			*queue = (*queue)[1:]
		}
	}
	return frags
}

// buildTrades turns the fragments of one closing fill into trades. The closing fill's fees
// are taken as the fragments are consumed.
func (m *tradeMatcherImpl) buildTrades(side models.Side, fill *closingFill, frags []fragment) []models.MatchedTrade {
	if len(frags) == 0 {
		return nil
	}
	if m.opts.MergeFragments {
		var qty int64
		for _, f := range frags {
			qty += f.qty
		}
		exitFees := fill.takeFees(qty)
		return []models.MatchedTrade{m.newTrade(side, fill.exec, frags, exitFees)}
	}

	trades := make([]models.MatchedTrade, 0, len(frags))
	for _, f := range frags {
		one := []fragment{f}
		exitFees := fill.takeFees(f.qty)
		trades = append(trades, m.newTrade(side, fill.exec, one, exitFees))
	}
	return trades
}

func (m *tradeMatcherImpl) newTrade(side models.Side, exit models.RawExecution, frags []fragment, exitFees decimal.Decimal) models.MatchedTrade {
	sign := decimal.NewFromInt(1)
	if side == models.SideShort {
		sign = sign.Neg()
	}
	mult := exit.Multiplier
	if mult <= 0 {
		mult = 1
	}

	var qty int64
	gross := decimal.Zero
	fees := exitFees
	notional := decimal.Zero
	entryTime := frags[0].lot.openedAt
	entryFingerprints := make([]string, 0, len(frags))

	for _, f := range frags {
		q := decimal.NewFromInt(f.qty)
		qty += f.qty
		notional = notional.Add(f.lot.price.Mul(q))
		leg := exit.Price.Sub(f.lot.price).Mul(q).Mul(decimal.NewFromInt(mult)).Mul(sign)
		gross = gross.Add(leg)
		fees = fees.Add(f.fees)
		if f.lot.openedAt.Before(entryTime) {
			entryTime = f.lot.openedAt
		}
		entryFingerprints = append(entryFingerprints, f.lot.fingerprint)
	}

	entryPrice := notional.DivRound(decimal.NewFromInt(qty), 8)
	// Money is settled in cents per trade so trade P&L sums to the report totals.
	gross = gross.Round(moneyPlaces)
	fees = fees.Round(moneyPlaces)
	pnl := gross.Sub(fees)
	exitTime := exit.ExecutedAt()
	hold := exitTime.Sub(entryTime)
	if hold < 0 {
		hold = 0
	}

	return models.MatchedTrade{
		TradeDate:         utils.FormatDate(exit.TradeDate),
		Symbol:            exit.Symbol,
		Side:              side,
		EntryAction:       frags[0].lot.action,
		ExitAction:        exit.Action,
		EntryTime:         entryTime,
		ExitTime:          exitTime,
		EntryPrice:        entryPrice,
		ExitPrice:         exit.Price,
		Quantity:          qty,
		Multiplier:        mult,
		GrossPnL:          gross,
		Fees:              fees,
		PnL:               pnl,
		Result:            ClassifyResult(pnl, m.opts.ScratchThreshold),
		HoldTime:          models.HoldTime(hold),
		EntryHour:         entryTime.Hour(),
		ExitHour:          exitTime.Hour(),
		EntryFingerprints: entryFingerprints,
		ExitFingerprint:   exit.Fingerprint,
		ExitSeq:           exit.Seq,
	}
}

// ClassifyResult maps net P&L to Win/Lose/Scratch. |pnl| <= threshold is a scratch.
func ClassifyResult(pnl, threshold decimal.Decimal) models.Result {
	switch {
	case pnl.GreaterThan(threshold):
		return models.ResultWin
	case pnl.LessThan(threshold.Neg()):
		return models.ResultLose
	default:
		return models.ResultScratch
	}
}

func groupExecutionsBySymbol(executions []models.RawExecution) map[string][]models.RawExecution {
	grouped := make(map[string][]models.RawExecution)
	for _, e := range executions {
		if e.Symbol == "" || e.Quantity <= 0 {
			logger.L.Warn("Skipping execution that cannot be matched", "symbol", e.Symbol, "quantity", e.Quantity, "fingerprint", e.Fingerprint)
			continue
		}
		grouped[e.Symbol] = append(grouped[e.Symbol], e)
	}
	return grouped
}

// sortExecutionsChronologically orders by date, then time of day, then ledger sequence.
// A fill without a time sorts at the start of its day.
func sortExecutionsChronologically(execs []models.RawExecution) {
	sort.SliceStable(execs, func(i, j int) bool {
		a, b := execs[i], execs[j]
		if !a.TradeDate.Equal(b.TradeDate) {
			return a.TradeDate.Before(b.TradeDate)
		}
		ta, tb := timeOfDay(a), timeOfDay(b)
		if ta != tb {
			return ta < tb
		}
		return a.Seq < b.Seq
	})
}

func timeOfDay(e models.RawExecution) time.Duration {
	if !e.HasTime {
		return 0
	}
	return e.TradeTime
}

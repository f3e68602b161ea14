package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"craftbrowser.ai/internal/craft/browser"
	"craftbrowser.ai/internal/craft/candidates"
	"craftbrowser.ai/internal/craft/grid"
	"craftbrowser.ai/internal/craft/inventory"
	"craftbrowser.ai/internal/craft/item"
	"craftbrowser.ai/internal/craft/recipe"
	"craftbrowser.ai/internal/persistence/indexdb"
	persistlog "craftbrowser.ai/internal/persistence/log"
	"craftbrowser.ai/internal/protocol"
	"craftbrowser.ai/internal/sim/catalogs"
	"craftbrowser.ai/internal/sim/encoding"
	"craftbrowser.ai/internal/sim/tuning"
)

// maxPendingPlans bounds the plans a session remembers while waiting for
// executor reports.
const maxPendingPlans = 32

type CatalogSource interface {
	Get() (*catalogs.Catalogs, error)
}

type AuditSink interface {
	WriteAudit(e persistlog.AuditEntry) error
}

type IndexSink interface {
	RecordSessionOpen(row indexdb.SessionRow)
	RecordSessionClose(sessionID string, at time.Time)
	RecordPlan(row indexdb.PlanRow)
	RecordReport(row indexdb.ReportRow)
}

type Config struct {
	Catalogs CatalogSource
	Tuning   tuning.Tuning
	Audit    AuditSink   // optional
	Index    IndexSink   // optional
	Logger   *log.Logger // optional

	NewID func() string    // default uuid.NewString
	Now   func() time.Time // default time.Now
}

// Session is the per-connection browser. It is driven by a single reader
// goroutine and is not safe for concurrent use.
type Session struct {
	id     string
	client string
	cfg    Config

	browser *browser.Browser

	inv     []item.Stack
	haveInv bool

	// cats is pinned at OPEN so confirm and the candidate list agree on the
	// catalog even if it is reloaded meanwhile.
	cats *catalogs.Catalogs

	pending      map[string]string // plan id -> recipe id
	pendingOrder []string
}

func newSession(id, client string, cfg Config) *Session {
	return &Session{
		id:     id,
		client: client,
		cfg:    cfg,
		browser: browser.New(browser.Config{
			MaxDepth:    cfg.Tuning.MaxDepth,
			VisibleRows: cfg.Tuning.VisibleRows,
		}),
		pending: map[string]string{},
	}
}

func (s *Session) ID() string { return s.id }

// Welcome opens the session in the index and builds the WELCOME reply.
func (s *Session) Welcome() protocol.WelcomeMsg {
	digest := ""
	if s.cfg.Catalogs != nil {
		if c, _ := s.cfg.Catalogs.Get(); c != nil {
			digest = c.Digest
		}
	}
	if s.cfg.Index != nil {
		s.cfg.Index.RecordSessionOpen(indexdb.SessionRow{
			SessionID:     s.id,
			ClientName:    s.client,
			CatalogDigest: digest,
			At:            s.cfg.Now(),
		})
	}
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       s.id,
		CatalogDigest:   digest,
		MaxDepth:        s.browser.Config().MaxDepth,
		VisibleRows:     s.browser.Config().VisibleRows,
		DefaultGridSide: s.cfg.Tuning.DefaultGridSide,
	}
}

// End records the session close. A browser left open is logged as closed.
func (s *Session) End() {
	if s.browser.IsOpen() {
		s.browser.Close()
		s.audit(persistlog.AuditEntry{Kind: persistlog.KindClose})
	}
	if s.cfg.Index != nil {
		s.cfg.Index.RecordSessionClose(s.id, s.cfg.Now())
	}
}

// Handle processes one client message and returns the replies in order.
func (s *Session) Handle(msg []byte) []any {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return one(errorMsg(protocol.ErrBadRequest, "invalid json"))
	}
	if base.ProtocolVersion != protocol.Version {
		return one(errorMsg(protocol.ErrProtoBadRequest, "bad protocol_version"))
	}
	switch base.Type {
	case protocol.TypeInventory:
		var m protocol.InventoryMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return one(errorMsg(protocol.ErrBadRequest, err.Error()))
		}
		return s.onInventory(m)
	case protocol.TypeTrigger:
		var m protocol.TriggerMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return one(errorMsg(protocol.ErrBadRequest, err.Error()))
		}
		return s.onTrigger(m)
	case protocol.TypeReport:
		var m protocol.ReportMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return one(errorMsg(protocol.ErrBadRequest, err.Error()))
		}
		return s.onReport(m)
	default:
		return one(errorMsg(protocol.ErrProtoBadRequest, fmt.Sprintf("unexpected message type %q", base.Type)))
	}
}

func (s *Session) onInventory(m protocol.InventoryMsg) []any {
	stacks := make([]item.Stack, 0, len(m.Stacks))
	for _, st := range m.Stacks {
		if st.Item == "" {
			return one(errorMsg(protocol.ErrBadRequest, "stack with empty item"))
		}
		stacks = append(stacks, item.Stack{Item: st.Item, Variant: st.Variant, Count: st.Count})
	}
	s.inv = stacks
	s.haveInv = true
	return nil
}

func (s *Session) onTrigger(m protocol.TriggerMsg) []any {
	switch m.Action {
	case protocol.ActionOpen:
		return s.open()
	case protocol.ActionScrollUp, protocol.ActionScrollDown:
		if !s.browser.IsOpen() {
			return one(errorMsg(protocol.ErrClosed, browser.ErrClosed.Error()))
		}
		dir := 1
		if m.Action == protocol.ActionScrollUp {
			dir = -1
		}
		s.browser.Scroll(dir)
		return one(s.candidatesMsg())
	case protocol.ActionConfirm:
		return s.confirm(m.GridSide)
	case protocol.ActionCancel:
		if s.browser.IsOpen() {
			s.browser.Close()
			s.audit(persistlog.AuditEntry{Kind: persistlog.KindClose})
		}
		return one(s.candidatesMsg())
	default:
		return one(errorMsg(protocol.ErrBadRequest, fmt.Sprintf("unknown action %q", m.Action)))
	}
}

func (s *Session) open() []any {
	if !s.haveInv {
		return one(errorMsg(protocol.ErrNoInventory, "no INVENTORY received"))
	}
	if s.cfg.Catalogs == nil {
		return one(errorMsg(protocol.ErrCatalogUnavailable, "no catalog source"))
	}
	cats, err := s.cfg.Catalogs.Get()
	if err != nil {
		s.logf("catalogs: %v", err)
	}
	if cats == nil {
		return one(errorMsg(protocol.ErrCatalogUnavailable, "catalog unavailable"))
	}
	s.cats = cats
	snap := inventory.NewSnapshot(cats.Built.Items(), s.inv)
	list := s.browser.Open(cats.Built, snap)

	s.audit(persistlog.AuditEntry{
		Kind:          persistlog.KindOpen,
		CatalogDigest: cats.Digest,
		Inventory:     auditStacks(snap.Stacks()),
		Candidates:    candidates.IDs(list),
	})
	return one(s.candidatesMsg())
}

func (s *Session) confirm(gridSide int) []any {
	if !s.browser.IsOpen() {
		return one(errorMsg(protocol.ErrClosed, browser.ErrClosed.Error()))
	}
	if gridSide == 0 {
		gridSide = s.cfg.Tuning.DefaultGridSide
	}
	live := inventory.NewSnapshot(s.cats.Built.Items(), s.inv)
	var recipeID string
	if list := s.browser.Candidates(); s.browser.Selected() < len(list) {
		recipeID = list[s.browser.Selected()].ID
	}

	plan, err := s.browser.Confirm(live, gridSide)
	if err != nil {
		code := errorCode(err)
		switch code {
		case protocol.ErrInfeasible:
			s.audit(persistlog.AuditEntry{Kind: persistlog.KindInfeasible, RecipeID: recipeID, Inventory: auditStacks(live.Stacks()), Code: code})
		case protocol.ErrGridTooSmall:
			s.audit(persistlog.AuditEntry{Kind: persistlog.KindGridTooSmall, RecipeID: recipeID, GridSide: gridSide, Code: code})
		}
		return one(errorMsg(code, err.Error()))
	}

	planID := s.cfg.NewID()
	s.remember(planID, plan.RecipeID)
	msg := planMsg(planID, plan)

	s.audit(persistlog.AuditEntry{
		Kind:       persistlog.KindPlan,
		RecipeID:   plan.RecipeID,
		PlanID:     planID,
		GridSide:   plan.GridSide,
		Placements: auditPlacements(plan),
	})
	if s.cfg.Index != nil {
		s.cfg.Index.RecordPlan(indexdb.PlanRow{
			PlanID:     planID,
			SessionID:  s.id,
			RecipeID:   plan.RecipeID,
			GridSide:   plan.GridSide,
			Placements: msg.Placements,
			Slots:      len(plan.Placements),
			At:         s.cfg.Now(),
		})
	}
	return []any{msg, s.candidatesMsg()}
}

func (s *Session) onReport(m protocol.ReportMsg) []any {
	if _, ok := s.pending[m.PlanID]; !ok {
		return one(errorMsg(protocol.ErrUnknownPlan, fmt.Sprintf("unknown plan %q", m.PlanID)))
	}
	s.forget(m.PlanID)

	results := make([]indexdb.SlotResult, 0, len(m.Results))
	audit := make([]persistlog.SlotResult, 0, len(m.Results))
	failed := 0
	for _, r := range m.Results {
		results = append(results, indexdb.SlotResult{Slot: r.Slot, OK: r.OK, Message: r.Message})
		audit = append(audit, persistlog.SlotResult{Slot: r.Slot, OK: r.OK, Message: r.Message})
		if !r.OK {
			failed++
		}
	}
	if failed > 0 {
		s.logf("session %s plan %s: %d of %d slots failed", s.id, m.PlanID, failed, len(m.Results))
	}
	s.audit(persistlog.AuditEntry{Kind: persistlog.KindReport, PlanID: m.PlanID, Report: audit})
	if s.cfg.Index != nil {
		s.cfg.Index.RecordReport(indexdb.ReportRow{PlanID: m.PlanID, Results: results, At: s.cfg.Now()})
	}
	return one(protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          m.PlanID,
		Accepted:        true,
	})
}

func (s *Session) remember(planID, recipeID string) {
	if len(s.pendingOrder) >= maxPendingPlans {
		delete(s.pending, s.pendingOrder[0])
		s.pendingOrder = s.pendingOrder[1:]
	}
	s.pending[planID] = recipeID
	s.pendingOrder = append(s.pendingOrder, planID)
}

func (s *Session) forget(planID string) {
	delete(s.pending, planID)
	for i, id := range s.pendingOrder {
		if id == planID {
			s.pendingOrder = append(s.pendingOrder[:i], s.pendingOrder[i+1:]...)
			break
		}
	}
}

func (s *Session) candidatesMsg() protocol.CandidatesMsg {
	m := protocol.CandidatesMsg{
		Type:            protocol.TypeCandidates,
		ProtocolVersion: protocol.Version,
		Open:            s.browser.IsOpen(),
		Selected:        s.browser.Selected(),
		Scroll:          s.browser.ScrollOffset(),
		VisibleRows:     s.browser.Config().VisibleRows,
	}
	if !m.Open {
		return m
	}
	var items *item.Registry
	if s.cats != nil {
		items = s.cats.Built.Items()
	}
	for i, r := range s.browser.Candidates() {
		m.Candidates = append(m.Candidates, candidateRow(i, r, items))
	}
	return m
}

func candidateRow(i int, r *recipe.Recipe, items *item.Registry) protocol.CandidateRow {
	return protocol.CandidateRow{
		Index:    i,
		RecipeID: r.ID,
		Item:     r.Output.Item,
		Variant:  r.Output.Variant,
		Count:    r.OutputCount,
		Name:     items.DisplayName(r.Output.Item),
	}
}

func planMsg(planID string, plan grid.Plan) protocol.PlanMsg {
	palette, enc := encoding.EncodeGrid(plan.Cells())
	m := protocol.PlanMsg{
		Type:            protocol.TypePlan,
		ProtocolVersion: protocol.Version,
		PlanID:          planID,
		RecipeID:        plan.RecipeID,
		GridSide:        plan.GridSide,
		Palette:         make([]protocol.ItemKey, 0, len(palette)),
		Grid:            enc,
		Placements:      make([]protocol.Placement, 0, len(plan.Placements)),
	}
	for _, k := range palette {
		m.Palette = append(m.Palette, protocol.ItemKey{Item: k.Item, Variant: k.Variant})
	}
	for _, p := range plan.Placements {
		m.Placements = append(m.Placements, protocol.Placement{Slot: p.Slot, Item: p.Item.Item, Variant: p.Item.Variant})
	}
	return m
}

// errorCode maps browser and grid errors to wire codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, browser.ErrClosed):
		return protocol.ErrClosed
	case errors.Is(err, browser.ErrNoCandidates):
		return protocol.ErrNoCandidates
	case errors.Is(err, browser.ErrIndexOutOfRange):
		return protocol.ErrIndexOutOfRange
	case errors.Is(err, browser.ErrInfeasible):
		return protocol.ErrInfeasible
	case grid.IsTooSmall(err):
		return protocol.ErrGridTooSmall
	case errors.Is(err, grid.ErrInvalidGridSide):
		return protocol.ErrInvalidGridSide
	default:
		return protocol.ErrInternal
	}
}

func (s *Session) audit(e persistlog.AuditEntry) {
	if s.cfg.Audit == nil {
		return
	}
	e.TS = s.cfg.Now().UTC().Format(time.RFC3339Nano)
	e.SessionID = s.id
	e.MaxDepth = s.browser.Config().MaxDepth
	if e.CatalogDigest == "" && s.cats != nil {
		e.CatalogDigest = s.cats.Digest
	}
	if err := s.cfg.Audit.WriteAudit(e); err != nil {
		s.logf("audit: %v", err)
	}
}

func (s *Session) logf(format string, args ...any) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Printf(format, args...)
	}
}

func auditStacks(in []item.Stack) []persistlog.Stack {
	out := make([]persistlog.Stack, 0, len(in))
	for _, st := range in {
		out = append(out, persistlog.Stack{Item: st.Item, Variant: st.Variant, Count: st.Count})
	}
	return out
}

func auditPlacements(p grid.Plan) []persistlog.Placement {
	out := make([]persistlog.Placement, 0, len(p.Placements))
	for _, pl := range p.Placements {
		out = append(out, persistlog.Placement{Slot: pl.Slot, Item: pl.Item.Item, Variant: pl.Item.Variant})
	}
	return out
}

func errorMsg(code, message string) protocol.ErrorMsg {
	return protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         message,
	}
}

func one(v any) []any { return []any{v} }

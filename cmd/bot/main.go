package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"craftbrowser.ai/internal/craft/inventory"
	"craftbrowser.ai/internal/craft/item"
	"craftbrowser.ai/internal/protocol"
	"craftbrowser.ai/internal/sim/encoding"
)

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name     = flag.String("name", "bot", "client name")
		stacks   = flag.String("stacks", "PLANK:0:2", "inventory as item:variant:count,...")
		dumpPath = flag.String("inventory", "", "inventory dump file (overrides -stacks)")
		jsonPath = flag.String("path", inventory.DefaultDumpPath, "gjson path of the stack array inside -inventory")
		pick     = flag.Int("pick", 0, "candidate index to confirm")
		gridSide = flag.Int("grid", 3, "crafting grid side")
		fail     = flag.Int("fail_slot", -1, "report this slot as failed")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	inv, err := loadInventory(*stacks, *dumpPath, *jsonPath)
	if err != nil {
		logger.Fatalf("inventory: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	res, err := run(conn, script{Name: *name, Inventory: inv, Pick: *pick, GridSide: *gridSide, FailSlot: *fail}, logger)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	logger.Printf("done recipe=%s plan=%s accepted=%v", res.Plan.RecipeID, res.Plan.PlanID, res.Ack.Accepted)
}

type script struct {
	Name      string
	Inventory []protocol.ItemStack
	Pick      int
	GridSide  int
	FailSlot  int
}

type outcome struct {
	Welcome    protocol.WelcomeMsg
	Candidates protocol.CandidatesMsg
	Plan       protocol.PlanMsg
	Ack        protocol.AckMsg
}

// run drives one browse: HELLO, INVENTORY, OPEN, scroll to Pick, CONFIRM,
// then REPORT every placement as executed.
func run(conn *websocket.Conn, s script, logger *log.Logger) (outcome, error) {
	var res outcome
	send := func(v any) error { return conn.WriteJSON(v) }

	if err := send(protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: s.Name}); err != nil {
		return res, fmt.Errorf("send HELLO: %w", err)
	}
	if err := expect(conn, protocol.TypeWelcome, &res.Welcome); err != nil {
		return res, err
	}
	logger.Printf("WELCOME session=%s digest=%.12s max_depth=%d", res.Welcome.SessionID, res.Welcome.CatalogDigest, res.Welcome.MaxDepth)

	if err := send(protocol.InventoryMsg{Type: protocol.TypeInventory, ProtocolVersion: protocol.Version, Stacks: s.Inventory}); err != nil {
		return res, err
	}
	if err := send(trigger(protocol.ActionOpen, 0)); err != nil {
		return res, err
	}
	if err := expect(conn, protocol.TypeCandidates, &res.Candidates); err != nil {
		return res, err
	}
	for _, row := range res.Candidates.Candidates {
		logger.Printf("  %2d %-20s x%d %s", row.Index, row.RecipeID, row.Count, row.Name)
	}
	if len(res.Candidates.Candidates) == 0 {
		return res, fmt.Errorf("nothing craftable")
	}
	if s.Pick < 0 || s.Pick >= len(res.Candidates.Candidates) {
		return res, fmt.Errorf("pick %d out of range (%d candidates)", s.Pick, len(res.Candidates.Candidates))
	}
	for i := 0; i < s.Pick; i++ {
		if err := send(trigger(protocol.ActionScrollDown, 0)); err != nil {
			return res, err
		}
		if err := expect(conn, protocol.TypeCandidates, &res.Candidates); err != nil {
			return res, err
		}
	}

	if err := send(trigger(protocol.ActionConfirm, s.GridSide)); err != nil {
		return res, err
	}
	if err := expect(conn, protocol.TypePlan, &res.Plan); err != nil {
		return res, err
	}
	// The browser closes after a plan; the server follows up with the
	// closed list.
	var closed protocol.CandidatesMsg
	if err := expect(conn, protocol.TypeCandidates, &closed); err != nil {
		return res, err
	}
	logger.Printf("PLAN %s recipe=%s grid=%d placements=%d", res.Plan.PlanID, res.Plan.RecipeID, res.Plan.GridSide, len(res.Plan.Placements))
	if err := checkGrid(res.Plan); err != nil {
		return res, err
	}

	results := make([]protocol.SlotResult, 0, len(res.Plan.Placements))
	for _, p := range res.Plan.Placements {
		r := protocol.SlotResult{Slot: p.Slot, OK: true}
		if p.Slot == s.FailSlot {
			r = protocol.SlotResult{Slot: p.Slot, Message: "slot occupied"}
		}
		results = append(results, r)
	}
	if err := send(protocol.ReportMsg{Type: protocol.TypeReport, ProtocolVersion: protocol.Version, PlanID: res.Plan.PlanID, Results: results}); err != nil {
		return res, err
	}
	if err := expect(conn, protocol.TypeAck, &res.Ack); err != nil {
		return res, err
	}
	return res, nil
}

// checkGrid verifies that the encoded grid and the placement list describe
// the same layout.
func checkGrid(p protocol.PlanMsg) error {
	palette := make([]item.Key, 0, len(p.Palette))
	for _, k := range p.Palette {
		palette = append(palette, item.Key{Item: k.Item, Variant: k.Variant})
	}
	cells, err := encoding.DecodeGrid(palette, p.Grid, p.GridSide)
	if err != nil {
		return fmt.Errorf("plan %s: decode grid: %w", p.PlanID, err)
	}
	filled := 0
	for _, c := range cells {
		if c != nil {
			filled++
		}
	}
	if filled != len(p.Placements) {
		return fmt.Errorf("plan %s: grid has %d items, placements %d", p.PlanID, filled, len(p.Placements))
	}
	for _, pl := range p.Placements {
		if pl.Slot < 0 || pl.Slot >= len(cells) {
			return fmt.Errorf("plan %s: slot %d out of range", p.PlanID, pl.Slot)
		}
		c := cells[pl.Slot]
		if c == nil || c.Item != pl.Item || c.Variant != pl.Variant {
			return fmt.Errorf("plan %s: slot %d disagrees with grid", p.PlanID, pl.Slot)
		}
	}
	return nil
}

func trigger(action string, gridSide int) protocol.TriggerMsg {
	return protocol.TriggerMsg{Type: protocol.TypeTrigger, ProtocolVersion: protocol.Version, Action: action, GridSide: gridSide}
}

// expect reads the next message and decodes it into v when it has type
// want. An ERROR reply becomes a Go error.
func expect(conn *websocket.Conn, want string, v any) error {
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read %s: %w", want, err)
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return err
	}
	if base.Type == protocol.TypeError {
		var e protocol.ErrorMsg
		_ = json.Unmarshal(msg, &e)
		return fmt.Errorf("server error %s: %s", e.Code, e.Message)
	}
	if base.Type != want {
		return fmt.Errorf("expected %s, got %s", want, base.Type)
	}
	return json.Unmarshal(msg, v)
}

func loadInventory(stacks, dumpPath, jsonPath string) ([]protocol.ItemStack, error) {
	if dumpPath != "" {
		raw, err := os.ReadFile(dumpPath)
		if err != nil {
			return nil, err
		}
		parsed, err := inventory.ParseDump(raw, jsonPath)
		if err != nil {
			return nil, err
		}
		out := make([]protocol.ItemStack, 0, len(parsed))
		for _, s := range parsed {
			out = append(out, protocol.ItemStack{Item: s.Item, Variant: s.Variant, Count: s.Count})
		}
		return out, nil
	}
	return parseStacks(stacks)
}

// parseStacks reads "item:variant:count" entries; variant and count may be
// omitted ("LOG" is LOG:0:1, "LOG:2" is LOG:2:1).
func parseStacks(s string) ([]protocol.ItemStack, error) {
	var out []protocol.ItemStack
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ":")
		if len(fields) > 3 || fields[0] == "" {
			return nil, fmt.Errorf("bad stack %q", part)
		}
		st := protocol.ItemStack{Item: fields[0], Count: 1}
		if len(fields) > 1 {
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("bad variant in %q", part)
			}
			st.Variant = v
		}
		if len(fields) > 2 {
			n, err := strconv.Atoi(fields[2])
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("bad count in %q", part)
			}
			st.Count = n
		}
		out = append(out, st)
	}
	return out, nil
}

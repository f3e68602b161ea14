package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
	CatalogDigest   string `json:"catalog_digest"`
	MaxDepth        int    `json:"max_depth"`
	VisibleRows     int    `json:"visible_rows"`
	DefaultGridSide int    `json:"default_grid_side"`
}

type ItemStack struct {
	Item    string `json:"item"`
	Variant int    `json:"variant,omitempty"`
	Count   int    `json:"count"`
}

type ItemKey struct {
	Item    string `json:"item"`
	Variant int    `json:"variant"`
}

// INVENTORY (client -> server): the player's full inventory. It replaces
// whatever the server held before.
type InventoryMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Stacks          []ItemStack `json:"stacks"`
}

// TRIGGER (client -> server): a browser key press.
type TriggerMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Action          string `json:"action"`
	// GridSide is the open crafting grid (2 or 3); 0 uses the server default.
	GridSide int `json:"grid_side,omitempty"`
}

// REPORT (client -> server): per-slot outcome of executing a PLAN.
type ReportMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	PlanID          string       `json:"plan_id"`
	Results         []SlotResult `json:"results"`
}

type SlotResult struct {
	Slot    int    `json:"slot"`
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// CANDIDATES (server -> client)
type CandidatesMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	Open            bool           `json:"open"`
	Selected        int            `json:"selected"`
	Scroll          int            `json:"scroll"`
	VisibleRows     int            `json:"visible_rows"`
	Candidates      []CandidateRow `json:"candidates"`
}

type CandidateRow struct {
	Index    int    `json:"index"`
	RecipeID string `json:"recipe_id"`
	Item     string `json:"item"`
	Variant  int    `json:"variant"`
	Count    int    `json:"count"`
	Name     string `json:"name,omitempty"`
}

// PLAN (server -> client): the fulfillment plan for a confirmed recipe.
// Grid is the RLE of GridSide*GridSide palette ids, 0 = empty slot and
// i = Palette[i-1].
type PlanMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	PlanID          string      `json:"plan_id"`
	RecipeID        string      `json:"recipe_id"`
	GridSide        int         `json:"grid_side"`
	Palette         []ItemKey   `json:"palette"`
	Grid            string      `json:"grid"`
	Placements      []Placement `json:"placements"`
}

type Placement struct {
	Slot    int    `json:"slot"`
	Item    string `json:"item"`
	Variant int    `json:"variant"`
}

type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

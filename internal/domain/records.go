package domain

import "time"

// Side es el lado de un fill u operación.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide normaliza el lado que llega de la API. Devuelve "" si no es reconocible.
func ParseSide(s string) Side {
	switch Side(upper(s)) {
	case SideBuy:
		return SideBuy
	case SideSell:
		return SideSell
	default:
		return ""
	}
}

// ActivityType es el tipo de evento del feed unificado de actividad.
type ActivityType string

const (
	ActivityTrade  ActivityType = "TRADE"
	ActivityRedeem ActivityType = "REDEEM"
	ActivityReward ActivityType = "REWARD"
)

// Order es un fill individual. Inmutable una vez registrado.
type Order struct {
	TraderID      string
	TraderName    string // solo para mostrar
	TransactionID string // agrupa varios fills en un mismo trade
	MarketID      string
	Side          Side
	OutcomeLabel  string // "Yes" | "No" u otro label específico del mercado
	Price         float64
	Shares        float64
	Timestamp     time.Time
}

// Position es una exposición abierta de un trader en un mercado/outcome.
type Position struct {
	TraderID      string
	MarketID      string
	MarketTitle   string
	MarketSlug    string
	OutcomeLabel  string
	Size          float64
	AveragePrice  float64
	CurrentPrice  float64
	InitialValue  float64
	CurrentValue  float64
	UnrealizedPnL float64
}

// ClosedPosition es una posición ya cerrada o resuelta.
type ClosedPosition struct {
	TraderID     string
	MarketID     string
	MarketTitle  string
	MarketSlug   string
	OutcomeLabel string
	Size         float64
	TotalBought  float64 // shares compradas en total; 0 si la API no lo informa
	AveragePrice float64
	ExitPrice    float64
	RealizedPnL  float64
	OpenedAt     time.Time
	ClosedAt     time.Time
}

// Activity es un evento del feed de actividad (TRADE, REDEEM, REWARD).
// Side, Price y Size son cero cuando el tipo de evento no los tiene.
type Activity struct {
	TraderID      string
	TraderName    string // solo para mostrar
	MarketID      string
	MarketTitle   string
	MarketSlug    string
	TransactionID string
	Type          ActivityType
	Side          Side
	Price         float64
	Size          float64
	USDCValue     float64
	Timestamp     time.Time
}

// TraderData agrupa todo lo que el engine necesita de un trader.
// Cualquiera de las colecciones puede venir vacía si su fetch falló.
type TraderData struct {
	TraderID   string
	Name       string
	Positions  []Position
	Closed     []ClosedPosition
	Activities []Activity
}

// MarketRef identifica un mercado resuelto a partir de su slug.
type MarketRef struct {
	ConditionID string
	Title       string
	Slug        string
}

// TraderReport es la vista de un trader: métricas puntuadas y agregado por categoría.
type TraderReport struct {
	Metrics     ScoredMetrics
	Summary     PortfolioSummary
	Percentiles PopulationPercentiles
	Errors      []FetchError
}

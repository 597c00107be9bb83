package polymarket

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.
//
// Los campos numéricos son `any`: la API mezcla números y strings según el
// endpoint y la versión. Todos pasan por domain.Num / domain.Timestamp.

// --- Data API ---

// dataPosition es un item de GET /positions.
type dataPosition struct {
	ProxyWallet  string `json:"proxyWallet"`
	ConditionID  string `json:"conditionId"`
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	Outcome      string `json:"outcome"`
	Size         any    `json:"size"`
	AvgPrice     any    `json:"avgPrice"`
	CurPrice     any    `json:"curPrice"`
	InitialValue any    `json:"initialValue"`
	CurrentValue any    `json:"currentValue"`
	CashPnl      any    `json:"cashPnl"`
}

// dataClosedPosition es un item de GET /closed-positions.
type dataClosedPosition struct {
	ProxyWallet string `json:"proxyWallet"`
	ConditionID string `json:"conditionId"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Outcome     string `json:"outcome"`
	Size        any    `json:"size"`
	TotalBought any    `json:"totalBought"`
	AvgPrice    any    `json:"avgPrice"`
	CurPrice    any    `json:"curPrice"`
	RealizedPnl any    `json:"realizedPnl"`
	Timestamp   any    `json:"timestamp"`
	EndDate     any    `json:"endDate"`
}

// dataActivity es un item de GET /activity.
type dataActivity struct {
	ProxyWallet     string `json:"proxyWallet"`
	Timestamp       any    `json:"timestamp"`
	ConditionID     string `json:"conditionId"`
	Type            string `json:"type"`
	Size            any    `json:"size"`
	UsdcSize        any    `json:"usdcSize"`
	Price           any    `json:"price"`
	Side            string `json:"side"`
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	Outcome         string `json:"outcome"`
	Name            string `json:"name"`
	Pseudonym       string `json:"pseudonym"`
	TransactionHash string `json:"transactionHash"`
}

// dataTrade es un fill de GET /trades.
type dataTrade struct {
	ProxyWallet     string `json:"proxyWallet"`
	Side            string `json:"side"`
	ConditionID     string `json:"conditionId"`
	Size            any    `json:"size"`
	Price           any    `json:"price"`
	Timestamp       any    `json:"timestamp"`
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	Outcome         string `json:"outcome"`
	Name            string `json:"name"`
	Pseudonym       string `json:"pseudonym"`
	TransactionHash string `json:"transactionHash"`
}

// --- Gamma API ---

// gammaMarketsResponse es la respuesta de GET /markets de Gamma.
type gammaMarketsResponse []gammaMarket

// gammaMarket es la metadata de un mercado en Gamma.
type gammaMarket struct {
	ConditionID string `json:"conditionId"`
	Question    string `json:"question"`
	Slug        string `json:"slug"`
	Active      bool   `json:"active"`
	Closed      bool   `json:"closed"`
}

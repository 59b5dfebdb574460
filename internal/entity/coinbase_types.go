package entity

import "encoding/json"

// PageResponse is one page of a paginated Coinbase API response.
type PageResponse struct {
	Data       []json.RawMessage `json:"data"`
	Pagination *Pagination       `json:"pagination"`
}

// Pagination carries the cursor to the next page of a result set.
type Pagination struct {
	NextURI string `json:"next_uri"`
}

// OutOfData reports whether this page is the last one. An absent pagination
// block, an empty next_uri or an empty data array all terminate pagination.
func (p *PageResponse) OutOfData() bool {
	return p.Pagination == nil || p.Pagination.NextURI == "" || len(p.Data) == 0
}

// AccountData is the raw account record as returned by /v2/accounts.
type AccountData struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	ResourcePath string       `json:"resource_path"`
	Currency     CurrencyData `json:"currency"`
	Balance      MoneyData    `json:"balance"`
}

// CurrencyData describes an account's currency and its decimal precision.
type CurrencyData struct {
	Code     string `json:"code"`
	Exponent int32  `json:"exponent"`
}

// MoneyData is a currency-tagged decimal amount, serialized as a string.
type MoneyData struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// TransactionData is the raw transaction record as returned by the
// transactions, deposits and withdrawals sub-resources of an account.
type TransactionData struct {
	ID                string                 `json:"id"`
	Resource          string                 `json:"resource"`
	Type              string                 `json:"type"`
	CreatedAt         string                 `json:"created_at"`
	Amount            MoneyData              `json:"amount"`
	Description       string                 `json:"description"`
	AdvancedTradeFill *AdvancedTradeFillData `json:"advanced_trade_fill"` // Pointer to handle potential nulls
	To                *ToData                `json:"to"`
	Network           *NetworkData           `json:"network"`
	Buy               *PaymentMethodData     `json:"buy"`
	Sell              *PaymentMethodData     `json:"sell"`
}

// AdvancedTradeFillData is the fill detail attached to advanced_trade_fill
// transactions. Commission is charged in the account currency.
type AdvancedTradeFillData struct {
	OrderSide  string `json:"order_side"`
	ProductID  string `json:"product_id"`
	FillPrice  string `json:"fill_price"`
	Commission string `json:"commission"`
}

// ToData is the counterparty of a send transaction.
type ToData struct {
	Address string `json:"address"`
}

// NetworkData identifies the network a send transaction settled on.
type NetworkData struct {
	NetworkName string `json:"network_name"`
}

// PaymentMethodData names the payment method behind a buy or sell.
type PaymentMethodData struct {
	PaymentMethodName string `json:"payment_method_name"`
}

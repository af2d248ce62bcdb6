package vtuapi

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// UserTier is the account tier assigned by the backend
type UserTier string

const (
	TierSmartUser  UserTier = "SMART_USER"
	TierReseller   UserTier = "RESELLER"
	TierAPIPartner UserTier = "API_PARTNER"
)

// KYCStatus is the identity verification status of an account
type KYCStatus string

const (
	KYCVerified   KYCStatus = "VERIFIED"
	KYCPending    KYCStatus = "PENDING"
	KYCUnverified KYCStatus = "UNVERIFIED"
)

// TransactionType classifies wallet transactions
type TransactionType string

const (
	TxData          TransactionType = "DATA"
	TxAirtime       TransactionType = "AIRTIME"
	TxRechargePin   TransactionType = "RECHARGE_PIN"
	TxWalletFunding TransactionType = "WALLET_FUNDING"
	TxElectricity   TransactionType = "ELECTRICITY"
	TxCableTV       TransactionType = "CABLE_TV"
)

// ParseTransactionType maps a filter value onto a transaction type.
// The UI calls recharge pins "PINS"; an empty or "ALL" filter yields "".
func ParseTransactionType(s string) (TransactionType, bool) {
	switch s {
	case "", "ALL", "all":
		return "", true
	case "PINS", "pins":
		return TxRechargePin, true
	}
	switch t := TransactionType(s); t {
	case TxData, TxAirtime, TxRechargePin, TxWalletFunding, TxElectricity, TxCableTV:
		return t, true
	}
	return "", false
}

// LoginRequest holds sign-in credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginUser is the user summary returned on sign-in
type LoginUser struct {
	ID            string   `json:"id"`
	UserName      string   `json:"userName"`
	Tier          UserTier `json:"tier"`
	IsKycVerified bool     `json:"isKycVerified"`
}

// LoginResult holds the issued token and user summary
type LoginResult struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

// RegisterRequest holds sign-up details
type RegisterRequest struct {
	UserName    string `json:"userName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

// VirtualAccount is the dedicated funding account of a user
type VirtualAccount struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
}

// Profile is the signed-in user's profile
type Profile struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	AvatarURL      string          `json:"avatarUrl,omitempty"`
	WalletBalance  decimal.Decimal `json:"walletBalance"`
	TodaySpent     decimal.Decimal `json:"todaySpent"`
	Tier           UserTier        `json:"tier"`
	KYCStatus      KYCStatus       `json:"kycStatus"`
	VirtualAccount *VirtualAccount `json:"virtualAccount,omitempty"`
}

// DashboardUser is the account summary shown on the dashboard
type DashboardUser struct {
	FullName      string          `json:"fullName"`
	Tier          UserTier        `json:"tier"`
	WalletBalance decimal.Decimal `json:"walletBalance"`
	LifetimeSpent decimal.Decimal `json:"lifetimeSpent"`
}

// Transaction is a wallet transaction
type Transaction struct {
	ID        string          `json:"id"`
	Type      TransactionType `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	Reference string          `json:"reference,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// Dashboard is the landing page summary
type Dashboard struct {
	User               DashboardUser   `json:"user"`
	RecentTransactions []Transaction   `json:"recentTransactions"`
	TodaySpent         decimal.Decimal `json:"todaySpent"`
}

// Pagination describes a page of results
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// TransactionQuery filters the transaction history
type TransactionQuery struct {
	Page  int
	Limit int
	Type  TransactionType
}

// TransactionPage is one page of transaction history
type TransactionPage struct {
	Items      []Transaction `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

// DataPlan is a purchasable data bundle
type DataPlan struct {
	ProductCode  string          `json:"PRODUCT_CODE"`
	ProductName  string          `json:"PRODUCT_NAME"`
	ProductAmt   string          `json:"PRODUCT_AMOUNT"`
	ProductID    string          `json:"PRODUCT_ID"`
	ProductSNo   string          `json:"PRODUCT_SNO,omitempty"`
	SellingPrice decimal.Decimal `json:"SELLING_PRICE"`
}

// NetworkGroup groups the plans of one network
type NetworkGroup struct {
	ID      string     `json:"ID"`
	Product []DataPlan `json:"PRODUCT"`
}

// NetworkPlans maps a backend network key ("MTN", "Glo", "m_9mobile", ...) to its groups
type NetworkPlans map[string][]NetworkGroup

// BuyDataRequest purchases a data bundle
type BuyDataRequest struct {
	Network     string `json:"network"`
	PlanID      string `json:"planId"`
	PhoneNumber string `json:"phoneNumber"`
}

// BuyAirtimeRequest purchases airtime
type BuyAirtimeRequest struct {
	Network     string          `json:"network"`
	Amount      decimal.Decimal `json:"amount"`
	PhoneNumber string          `json:"phoneNumber"`
}

// PurchaseResult is the backend acknowledgement of a purchase
type PurchaseResult struct {
	Message       string `json:"message"`
	TransactionID string `json:"transactionId"`
	Token         string `json:"token,omitempty"`
	CustomerName  string `json:"customerName,omitempty"`
}

// TransactionStatus is the live status of a purchase
type TransactionStatus struct {
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// GeneratePinsRequest asks the backend to issue recharge PINs
type GeneratePinsRequest struct {
	Network  string `json:"network"`
	Value    string `json:"value"`
	Quantity int    `json:"quantity"`
}

// RechargePin is an issued recharge PIN
type RechargePin struct {
	ID           string          `json:"id"`
	Network      string          `json:"network"`
	Denomination decimal.Decimal `json:"denomination"`
	PinCode      string          `json:"pinCode"`
	SerialNumber string          `json:"serialNumber,omitempty"`
	BatchNumber  string          `json:"batchNumber,omitempty"`
	IsSold       bool            `json:"isSold"`
	SoldAt       *time.Time      `json:"soldAt,omitempty"`
}

// InventoryMetadata describes a generation request
type InventoryMetadata struct {
	Network   string          `json:"network"`
	FaceValue decimal.Decimal `json:"faceValue"`
	Quantity  int             `json:"quantity"`
}

// InventoryEntry is one print batch in the PIN inventory
type InventoryEntry struct {
	ID          string            `json:"id"`
	Status      string            `json:"status"`
	Amount      decimal.Decimal   `json:"amount"`
	CreatedAt   time.Time         `json:"createdAt"`
	Metadata    InventoryMetadata `json:"metadata"`
	PrintedPins []RechargePin     `json:"printedPins"`
}

// PrintOrder is a single print order with its PINs
type PrintOrder struct {
	OrderID      string          `json:"orderId"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Quantity     int             `json:"quantity"`
	Network      string          `json:"network"`
	Denomination decimal.Decimal `json:"denomination"`
	Pins         []RechargePin   `json:"pins"`
}

// CablePackage is a subscription bouquet
type CablePackage struct {
	PackageID     string `json:"PACKAGE_ID"`
	PackageName   string `json:"PACKAGE_NAME"`
	PackageAmount string `json:"PACKAGE_AMOUNT"`
}

// CableProviderGroup groups the packages of one provider
type CableProviderGroup struct {
	ID      string         `json:"ID"`
	Product []CablePackage `json:"PRODUCT"`
}

// CablePackages maps a provider key to its package groups
type CablePackages map[string][]CableProviderGroup

// CableVerifyRequest verifies a smartcard
type CableVerifyRequest struct {
	CableTV     string
	SmartCardNo string
}

// CablePayRequest pays for a subscription
type CablePayRequest struct {
	CableTV     string `json:"cableTV"`
	PackageCode string `json:"packageCode"`
	SmartCardNo string `json:"smartCardNo"`
	PhoneNo     string `json:"phoneNo"`
}

// Disco is an electricity distribution company
type Disco struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	MinAmount decimal.Decimal `json:"minAmount"`
	MaxAmount decimal.Decimal `json:"maxAmount"`
}

// MeterVerifyRequest verifies an electricity meter
type MeterVerifyRequest struct {
	DiscoCode string
	MeterNo   string
	MeterType string
}

// MeterInfo is the verified owner of a meter
type MeterInfo struct {
	CustomerName string `json:"customerName"`
	MeterNumber  string `json:"meterNumber"`
}

// ElectricityPayRequest buys electricity units
type ElectricityPayRequest struct {
	DiscoCode string          `json:"discoCode"`
	MeterNo   string          `json:"meterNo"`
	MeterType string          `json:"meterType"`
	Amount    decimal.Decimal `json:"amount"`
	PhoneNo   string          `json:"phoneNo"`
}

// FundingResult carries the hosted payment page for a wallet top-up
type FundingResult struct {
	PaymentLink string `json:"paymentLink"`
	Message     string `json:"message,omitempty"`
}

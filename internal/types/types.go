// Package types provides common type definitions for the inventory hub system.
package types

// ListingStatus represents the lifecycle state of a listing
type ListingStatus string

const (
	// StatusDraft represents a listing that has not been published yet
	StatusDraft ListingStatus = "draft"
	// StatusActive represents a listing currently offered for sale
	StatusActive ListingStatus = "active"
	// StatusSold represents a listing that has been sold
	StatusSold ListingStatus = "sold"
	// StatusArchived represents a listing removed from circulation
	StatusArchived ListingStatus = "archived"
)

// ListingCondition represents the physical condition of an item
type ListingCondition string

const (
	// ConditionNew represents an unused item
	ConditionNew ListingCondition = "new"
	// ConditionLikeNew represents a lightly used item with no visible wear
	ConditionLikeNew ListingCondition = "like_new"
	// ConditionGood represents an item with normal signs of use
	ConditionGood ListingCondition = "good"
	// ConditionFair represents an item with noticeable wear
	ConditionFair ListingCondition = "fair"
)

// SourceKind represents how an item was acquired
type SourceKind string

const (
	// SourceThrift represents items acquired from thrift stores
	SourceThrift SourceKind = "thrift"
	// SourceEstate represents items acquired from estate sales
	SourceEstate SourceKind = "estate"
	// SourceConsignment represents items held on consignment
	SourceConsignment SourceKind = "consignment"
	// SourceWholesale represents items acquired in bulk
	SourceWholesale SourceKind = "wholesale"
)

// ResultSource tags where a load result came from
type ResultSource string

const (
	// SourceCache means the result was served from the in-memory query cache
	SourceCache ResultSource = "cache"
	// SourceNetwork means the result came from a live store query
	SourceNetwork ResultSource = "network"
	// SourceFallback means the result came from the durable fallback snapshot
	SourceFallback ResultSource = "fallback"
)

// FieldGroup names an optional set of detail columns a view may request
type FieldGroup string

const (
	// GroupImage covers the listing photo references
	GroupImage FieldGroup = "image"
	// GroupMeasurements covers item measurements
	GroupMeasurements FieldGroup = "measurements"
	// GroupKeywords covers search keywords
	GroupKeywords FieldGroup = "keywords"
	// GroupDescription covers the full listing description
	GroupDescription FieldGroup = "description"
	// GroupPurchasePrice covers the acquisition cost
	GroupPurchasePrice FieldGroup = "purchasePrice"
	// GroupNetProfit covers the realized net profit
	GroupNetProfit FieldGroup = "netProfit"
	// GroupProfitMargin covers the realized profit margin
	GroupProfitMargin FieldGroup = "profitMargin"
	// GroupPurchaseDate covers the acquisition date
	GroupPurchaseDate FieldGroup = "purchaseDate"
	// GroupConsignmentStatus covers consignment tracking fields
	GroupConsignmentStatus FieldGroup = "consignmentStatus"
	// GroupSourceType covers the acquisition source kind
	GroupSourceType FieldGroup = "sourceType"
	// GroupSourceLocation covers where the item was acquired
	GroupSourceLocation FieldGroup = "sourceLocation"
	// GroupCostBasis covers the total cost basis
	GroupCostBasis FieldGroup = "costBasis"
	// GroupDaysToSell covers time-on-market tracking
	GroupDaysToSell FieldGroup = "daysToSell"
	// GroupPerformanceNotes covers free-form performance notes
	GroupPerformanceNotes FieldGroup = "performanceNotes"
)

// AllFieldGroups lists every known field group
var AllFieldGroups = []FieldGroup{
	GroupImage,
	GroupMeasurements,
	GroupKeywords,
	GroupDescription,
	GroupPurchasePrice,
	GroupNetProfit,
	GroupProfitMargin,
	GroupPurchaseDate,
	GroupConsignmentStatus,
	GroupSourceType,
	GroupSourceLocation,
	GroupCostBasis,
	GroupDaysToSell,
	GroupPerformanceNotes,
}

// IsValidFieldGroup reports whether g names a known field group
func IsValidFieldGroup(g FieldGroup) bool {
	for _, known := range AllFieldGroups {
		if g == known {
			return true
		}
	}
	return false
}

// HealthState classifies the backing store's availability
type HealthState string

const (
	// HealthHealthy means the store is responding normally
	HealthHealthy HealthState = "healthy"
	// HealthSlow means the store responds but above the latency threshold
	HealthSlow HealthState = "slow"
	// HealthDegraded means the store is failing intermittently
	HealthDegraded HealthState = "degraded"
	// HealthDown means the store is considered unreachable
	HealthDown HealthState = "down"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Identity represents the authenticated user a query is scoped to
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
}

// IdentityResult is a tagged result for identity lookups.
// An absent session is an expected condition, not an error.
type IdentityResult struct {
	OK       bool      `json:"ok"`
	Kind     string    `json:"kind,omitempty"` // "Unauthenticated" when OK is false
	Identity *Identity `json:"identity,omitempty"`
}

// Authenticated builds a successful identity result
func Authenticated(id *Identity) IdentityResult {
	return IdentityResult{OK: true, Identity: id}
}

// Unauthenticated builds the explicit no-session result
func Unauthenticated() IdentityResult {
	return IdentityResult{OK: false, Kind: "Unauthenticated"}
}

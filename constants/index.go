package constants

const (
	DATA_INPUT_IS_NOT_NUMBER = "Input is not a number"
	INVALID_INPUT            = "Invalid input"
	NOT_FOUND                = "Not found"
	ORDER_NOT_FOUND          = "Order not found for restaurant"
	ORDER_ITEM_NOT_FOUND     = "Order item not found"
	TICKET_NOT_FOUND         = "Station ticket not found"
	SMARTMENU_NOT_FOUND      = "Smartmenu not found"
	VOICE_COMMAND_NOT_FOUND  = "Voice command not found"
	VOICE_DISABLED           = "Voice commands are disabled"
	ORDER_CLOSED             = "Order no longer accepts items"
	ITEMS_STILL_OPEN         = "Cannot request bill while items are still open"
	NO_SUBMITTED_ITEMS       = "Cannot request bill with no submitted items"
	MUST_BE_BILLREQUESTED    = "Order must be billrequested to pay"
	ORDER_TOTAL_ZERO         = "Order total is zero"
	PAYMENT_NOT_CONFIGURED   = "Payment provider is not configured"
	INVALID_TRANSITION       = "Status transition not allowed"
	INVALID_CSRF             = "Invalid CSRF token"
	INTERNAL_ERROR           = "Internal server error"
)

// Pub/sub channel name formats.
const (
	KitchenChannel   = "kitchen_%d"
	StationChannel   = "%s_%d"
	OrderChannel     = "ordr_%d_channel"
	OrderSlugChannel = "ordr_%s_channel"
	PresenceChannel  = "%s_%d_presence"
	PresenceKey      = "presence:%s:%d"
	CSRFHeader       = "X-CSRF-Token"
	CSRFCookie       = "csrf_token"
	TotalCountHeader = "X-Total-Count"
)

package apperr

var (
	// Auth
	ErrInvalidCredentials = Unauthorized("Invalid credentials")
	ErrInvalidToken       = Unauthorized("Invalid or expired token")
	ErrMissingToken       = Unauthorized("Authorization header required")
	ErrAccountInactive    = Forbidden("Account is deactivated")
	ErrWrongPassword      = Unauthorized("Current password is incorrect")
	ErrForbidden          = Forbidden("Forbidden")
	ErrUsernameTaken      = AlreadyExists("Username is already taken")
	ErrEmailTaken         = AlreadyExists("Email is already registered")
	ErrSelfAction         = InvalidArg("Admins cannot perform this action on themselves")

	// Catalog
	ErrUserNotFound    = NotFound("User not found")
	ErrProductNotFound = NotFound("Product not found")
	ErrNotProductOwner = Forbidden("You can only modify your own products")

	// Cart
	ErrCartNotFound      = NotFound("Cart not found")
	ErrCartItemNotFound  = NotFound("Item not found in cart")
	ErrInvalidQuantity   = InvalidArg("Quantity must be greater than 0")
	ErrInsufficientStock = FailedPrecondition("Insufficient stock")

	// Order
	ErrEmptyCart        = FailedPrecondition("Cart is empty")
	ErrOrderNotFound    = NotFound("Order not found")
	ErrNotOrderOwner    = Forbidden("Not authorized to access this order")
	ErrInvalidOrderTurn = FailedPrecondition("Invalid order status transition")

	// Conversation
	ErrConversationNotFound = NotFound("Conversation not found")
	ErrNotParticipant       = Forbidden("You are not a participant in this conversation")
	ErrTooFewParticipants   = InvalidArg("A conversation needs at least two distinct participants")
	ErrEmptyMessage         = InvalidArg("Message text is required")
	ErrMessageNotFound      = NotFound("Message not found")

	// AI uploads
	ErrImageRequired = InvalidArg("An image file is required")
	ErrImageTooLarge = InvalidArg("Image must be at most 20MB")
	ErrNotAnImage    = InvalidArg("Only image uploads are allowed")

	// Concurrency
	ErrConcurrentUpdate = New(CodeAborted, "The resource was modified concurrently, please retry")

	// Rate limit
	ErrTooManyRequests = New(CodeTooManyRequests, "Too many requests, please slow down")
)

// ErrOrderNotCancellable is the state-machine rejection for cancel.
func ErrOrderNotCancellable(status string) error {
	return FailedPrecondition("Order cannot be cancelled in " + status + " state")
}

package consts

const (
	DashboardHTML  = "dashboard.html"
	RequestsHTML   = "requests.html"
	MyRequestsHTML = "my_requests.html"
	QueueHTML      = "queue.html"
	AssignedHTML   = "assigned.html"
	DetailHTML     = "detail.html"
	UsersHTML      = "users.html"
)

const (
	Dashboard  = "/"
	Requests   = "/requests"
	MyRequests = "/requests/my"
	Queue      = "/requests/queue"
	Assigned   = "/requests/assigned"
	Detail     = "/requests/{id}"
	Users      = "/users"
	Connect    = "/connect"
	Disconnect = "/disconnect"
	Healthz    = "/healthz"
	Metrics    = "/metrics"
)

// Backend API paths.
const (
	APIMe           = "/users/me"
	APIUsers        = "/users"
	APIRequests     = "/requests"
	APIQueue        = "/requests/queue"
	APIMy           = "/requests/my"
	APIAssignedToMe = "/requests/assigned-to-me"
	APIHealth       = "/health"
)

const (
	APIKeyHeader      = "X-API-Key"
	ContentTypeHeader = "Content-Type"
	JSONContentType   = "application/json"
	APIKeyStorageKey  = "sf_api_key"
	DashboardLimit    = 5
	MaxListLimit      = 100
)

const (
	MissingKey     = "Enter an API key to connect."
	ConnectedAs    = "Connected as %s"
	ConnectError   = "Connection error: %s"
	Disconnected   = "Disconnected."
	NeedKey        = "An API key is required."
	TitleRequired  = "Title is required."
	RequestCreated = "Request created."
	CreateError    = "Error: %s"
	InternalError  = "Internal server error"
)

// Form and query field names.
const (
	APIKey      = "api_key"
	Title       = "title"
	Description = "description"
	StatusParam = "status"
	LimitParam  = "limit"
	RequestID   = "id"

	RequestStatusQuery = "request_status"
	LimitQuery         = "limit"
)

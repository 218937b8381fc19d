package enums

// Route names the screens the client navigates between.
type Route string

const (
	RouteHome    Route = "/"
	RouteAdmin   Route = "/admin"
	RouteLogin   Route = "/login"
	RouteProfile Route = "/profile"
	RouteOrders  Route = "/orders"
	RouteCatalog Route = "/catalog"
)

func (r Route) String() string {
	return string(r)
}

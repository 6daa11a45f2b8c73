package router

// outgoingRouteMaxMessages is large enough to hold the replay of a long
// canonical chain to a newly connected peer.
const outgoingRouteMaxMessages = 1 << 16

// Router holds the two routes of a connection: messages received from the
// peer wait in the incoming route until they are handled, and messages for
// the peer wait in the outgoing route until they are sent.
type Router struct {
	incomingRoute *Route
	outgoingRoute *Route
}

// NewRouter creates a new empty router
func NewRouter(name string) *Router {
	return &Router{
		incomingRoute: NewRoute(name + "-incoming"),
		outgoingRoute: newRouteWithCapacity(name+"-outgoing", outgoingRouteMaxMessages),
	}
}

// IncomingRoute returns the incoming route
func (r *Router) IncomingRoute() *Route {
	return r.incomingRoute
}

// OutgoingRoute returns the outgoing route
func (r *Router) OutgoingRoute() *Route {
	return r.outgoingRoute
}

// Close shuts down the router by closing both of its routes
func (r *Router) Close() {
	r.incomingRoute.Close()
	r.outgoingRoute.Close()
}

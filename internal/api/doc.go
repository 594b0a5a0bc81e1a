// Package api provides the HTTP and WebSocket surface of the daemon.
//
// Three audiences share one server. Payer wallets hit the public
// LNURL-pay endpoints, which speak the LNURL wire format including its
// error shape. Switch devices hold a WebSocket on /api/v1/ws/{deviceID}
// and receive trigger events. Operators manage switches over the
// authenticated admin API, using either a JWT from /auth/login or the
// per-device admin key.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api

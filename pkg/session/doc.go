// Package session ties the real-time notification client to the lifetime of
// an authenticated portal session.
//
// A Controller owns one channel.Client for as long as a session is active.
// Construct the client per session and inject it; nothing here is global.
//
//	client := channel.NewClient(transport, channel.WithLogger(log))
//	ctrl := session.New(client,
//		session.WithFeed(feed),
//		session.WithConfig(cfg),
//		session.WithLogger(log),
//	)
//	defer ctrl.Close()
//
//	state, err := ctrl.Start(ctx, identity.New("u1", identity.RoleAdmin)).Await()
//
// Start hydrates the notification store from the feed, connects (with the
// retry policy from Config) and joins the identity's rooms. The ctx passed
// to Start bounds the start only, not the session. Stop leaves every room,
// disconnects and resets the store; it is safe to call twice or without a
// prior Start, and it discards the result of a start still in flight.
//
// The UI reads Snapshot and State, triggers MarkRead and MarkAllRead, and
// listens on Arrivals for toast alerts. Panel is the command channel through
// which sibling components open, close or toggle the notification panel.
// Handlers registered with Subscribe are removed on Stop.
package session

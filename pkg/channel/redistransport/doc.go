// Package redistransport carries push rooms over Redis pub/sub.
//
// A room maps to the Redis channel prefix+room. Clients dial a Transport;
// join and leave control messages become SUBSCRIBE and UNSUBSCRIBE on the
// connection's PubSub, and other messages are published to their room.
// Servers push with a Publisher:
//
//	pub := redistransport.NewPublisher(client)
//	_ = pub.Publish(ctx, "user:42", channel.EventNotification, n)
//
// Messages travel as JSON-encoded channel.Message values.
//
// go-redis reconnects a PubSub transparently and keeps its channel open
// through outages. Each connection therefore pings Redis on an interval
// (see WithHealthCheck) and closes itself once the pings keep failing, so
// the channel client reports Disconnected and the session can redial.
package redistransport

// Package logger builds *slog.Logger instances with functional options and
// provides attribute helpers so that every component of livenotify names its
// log fields the same way.
//
// New picks a text or JSON handler, applies static attributes and wraps the
// handler with LogHandlerDecorator, which copies attributes attached to a
// context with WithAttrs (and any registered ContextExtractor output) into
// each record.
//
//	log := logger.New(logger.WithEnvironment("production", "livenotify"))
//	logger.SetAsDefault(log)
//
//	ctx = logger.WithAttrs(ctx, logger.UserID("u1"), logger.Role("admin"))
//	log.InfoContext(ctx, "joined room", logger.Room("user:u1"))
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger

// Package bootstrap runs a service through a uniform lifecycle: config
// defaults and validation, logger setup, component start in registration
// order, configure callbacks, a ready check, a startup summary, and graceful
// shutdown on SIGINT/SIGTERM.
//
//	app, err := bootstrap.NewApp(cfg)
//	if err != nil {
//	    return err
//	}
//	app.RegisterComponent(database.NewComponent(db))
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*config.Config]) error {
//	    return registerRoutes(a)
//	})
//	return app.Run(ctx)
//
// RunTask gives one-shot commands such as migrations the same lifecycle.
package bootstrap

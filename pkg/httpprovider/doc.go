// Package httpprovider defines a framework-agnostic contract for registering
// HTTP endpoints and bootstrapping the server that serves them.
//
// Architecture:
//   - Provider: the contract adapters implement (RegisterEndpoint, BootstrapProvider)
//   - Factory: builds the underlying framework app, wraps it and starts listening
//   - Request / Response: normalized views handed to handlers and middleware
//   - Driver registry: adapters register themselves by name from init()
//
// Concrete adapters live in the ginprovider and chiprovider sub-packages. The
// exchange sub-package holds the normalization code they share.
//
// Usage:
//
//	factory, err := httpprovider.NewFactory("gin", httpprovider.Settings{Logger: logger})
//	if err != nil {
//	    return err
//	}
//	provider, err := factory.MakeProvider(httpprovider.FactoryOptions{Port: 8080})
//	if err != nil {
//	    return err
//	}
//	err = provider.RegisterEndpoint(httpprovider.EndpointOptions{
//	    Type: httpprovider.MethodGet,
//	    URI:  "/hello/:id",
//	    Handler: func(req httpprovider.Request, res httpprovider.Response) error {
//	        res.JSON(map[string]string{"id": req.Param("id")})
//	        return nil
//	    },
//	})
package httpprovider

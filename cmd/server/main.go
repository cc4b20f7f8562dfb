// Command server runs the sample HTTP provider application.
package main

import (
	"os"

	// Drivers register themselves with httpprovider.
	_ "github.com/sirosfoundation/go-http-provider/pkg/httpprovider/chiprovider"
	_ "github.com/sirosfoundation/go-http-provider/pkg/httpprovider/ginprovider"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

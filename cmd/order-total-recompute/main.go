// order-total-recompute rewrites the stored total of every order from its
// current lines and discount. Safe to rerun.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := config.GetLogger()

	n, err := models.RecomputeAllOrderTotals(ctx)
	if err != nil {
		logger.WithFields(logrus.Fields{"processed": n}).Error("recompute stopped: " + err.Error())
		os.Exit(1)
	}
	logger.WithFields(logrus.Fields{"processed": n}).Info("order totals recomputed")
}

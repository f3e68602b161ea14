package main

import (
	"fmt"
	"net/http"

	"craftbrowser.ai/internal/persistence/indexdb"
	"craftbrowser.ai/internal/persistence/r2s3"
	"craftbrowser.ai/internal/sim/catalogs"
	"craftbrowser.ai/internal/transport/ws"
)

// metricsHandler writes a minimal Prometheus text exposition.
func metricsHandler(p *catalogs.Provider, srv *ws.Server, idx *indexdb.SQLiteIndex, mirror *r2s3.Mirror) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		fmt.Fprintf(rw, "# HELP craftbrowser_catalog_generation Number of successful catalog builds.\n")
		fmt.Fprintf(rw, "# TYPE craftbrowser_catalog_generation counter\n")
		fmt.Fprintf(rw, "craftbrowser_catalog_generation %d\n", p.Generation())
		if c, _ := p.Get(); c != nil {
			fmt.Fprintf(rw, "# HELP craftbrowser_catalog_recipes Recipes in the current catalog.\n")
			fmt.Fprintf(rw, "# TYPE craftbrowser_catalog_recipes gauge\n")
			fmt.Fprintf(rw, "craftbrowser_catalog_recipes{digest=%q} %d\n", c.Digest, c.Built.Len())
			fmt.Fprintf(rw, "craftbrowser_catalog_skipped_recipes{digest=%q} %d\n", c.Digest, len(c.Skipped))
		}

		s := srv.Stats()
		fmt.Fprintf(rw, "# HELP craftbrowser_sessions_active Connected browser sessions.\n")
		fmt.Fprintf(rw, "# TYPE craftbrowser_sessions_active gauge\n")
		fmt.Fprintf(rw, "craftbrowser_sessions_active %d\n", s.ActiveSessions)
		fmt.Fprintf(rw, "# HELP craftbrowser_sessions_total Sessions accepted since start.\n")
		fmt.Fprintf(rw, "# TYPE craftbrowser_sessions_total counter\n")
		fmt.Fprintf(rw, "craftbrowser_sessions_total %d\n", s.TotalSessions)

		if idx != nil {
			is := idx.Stats()
			fmt.Fprintf(rw, "# HELP craftbrowser_index_queue_depth Pending index writes.\n")
			fmt.Fprintf(rw, "# TYPE craftbrowser_index_queue_depth gauge\n")
			fmt.Fprintf(rw, "craftbrowser_index_queue_depth %d\n", is.QueueDepth)
			fmt.Fprintf(rw, "# HELP craftbrowser_index_dropped_total Index writes dropped on a full queue.\n")
			fmt.Fprintf(rw, "# TYPE craftbrowser_index_dropped_total counter\n")
			fmt.Fprintf(rw, "craftbrowser_index_dropped_total{kind=%q} %d\n", "session", is.DropSessionTotal)
			fmt.Fprintf(rw, "craftbrowser_index_dropped_total{kind=%q} %d\n", "plan", is.DropPlanTotal)
			fmt.Fprintf(rw, "craftbrowser_index_dropped_total{kind=%q} %d\n", "report", is.DropReportTotal)
		}

		if mirror != nil {
			ms := mirror.Stats()
			fmt.Fprintf(rw, "# HELP craftbrowser_audit_mirror_uploads_total Audit segment uploads by outcome.\n")
			fmt.Fprintf(rw, "# TYPE craftbrowser_audit_mirror_uploads_total counter\n")
			fmt.Fprintf(rw, "craftbrowser_audit_mirror_uploads_total{outcome=%q} %d\n", "ok", ms.Uploaded)
			fmt.Fprintf(rw, "craftbrowser_audit_mirror_uploads_total{outcome=%q} %d\n", "failed", ms.Failed)
			fmt.Fprintf(rw, "craftbrowser_audit_mirror_uploads_total{outcome=%q} %d\n", "dropped", ms.Dropped)
			fmt.Fprintf(rw, "craftbrowser_audit_mirror_queue_depth %d\n", ms.QueueDepth)
		}
	}
}

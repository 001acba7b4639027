// Package crawler holds the job, config, and collaborator interfaces shared by
// the worker pool, plus the URL and link helpers underneath them.
package crawler

// Package catalog retrieves the remote track catalog and projects its entries
// into the work items the sync pipeline mutates.
//
// Fetch failures are fatal to a run and carry services.ErrCatalogUnavailable.
// Projection silently drops entries without a source reference.
package catalog

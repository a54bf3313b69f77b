// Package portfolio holds the image metadata model and its repository.
//
// One row in portfolio_images describes one uploaded image: its display
// fields, the storage key of its blobs, and its decoded dimensions. The
// repository is the only code that reads or writes the table.
package portfolio

//go:build !filter_gocv

package filter

func defaultBackend() Backend { return GaussianBackend{} }

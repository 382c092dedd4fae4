//go:build !unix

package walker

func checkReadable(path string) error {
	return nil
}

//go:build !unix

package filex

import (
	"os"
	"sync"
)

// Without flock only writers inside this process are serialised.
var processLock sync.Mutex

func tryLock(_ *os.File) (bool, error) {
	return processLock.TryLock(), nil
}

func unlock(_ *os.File) error {
	processLock.Unlock()
	return nil
}

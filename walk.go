package dcmio

import (
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
)

// ConcurrentlyWalkDir recursively traverses a directory and calls `onFile` for each found file inside a goroutine.
// At most Config.OpenFileLimit calls run at once. It returns once every call has finished.
func ConcurrentlyWalkDir(dirPath string, onFile func(file string)) error {
	limit := GetConfig().OpenFileLimit
	if limit <= 0 {
		limit = 1
	}
	guard := make(chan bool, limit) // limits number of concurrently open files
	var files []string
	wg := sync.WaitGroup{}

	err := filepath.WalkDir(dirPath, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, filePath)
		return nil
	})
	if err != nil {
		return err
	}

	// now goroutine each file
	for _, filePath := range files {
		wg.Add(1)
		guard <- true // would block if guard channel is already filled
		go func(path string) {
			defer wg.Done()
			onFile(path)
			<-guard
		}(filePath)
	}
	wg.Wait()
	return nil
}

// ScanResult is the outcome of parsing one file found by ScanDir
type ScanResult struct {
	Path     string
	Document *Document
	Err      error
}

// ScanDir parses every file below `dirPath` accepted by `filter` (nil accepts all),
// concurrently. Results are sorted by path; a file that fails to parse carries its error.
func ScanDir(dirPath string, filter func(path string) bool, enc Encoding, opts ...ParseOption) ([]ScanResult, error) {
	var mu sync.Mutex
	var results []ScanResult
	err := ConcurrentlyWalkDir(dirPath, func(path string) {
		if filter != nil && !filter(path) {
			return
		}
		doc, err := ParseFile(path, enc, opts...)
		if err != nil {
			Debugf("scan: %v", err)
		}
		mu.Lock()
		results = append(results, ScanResult{Path: path, Document: doc, Err: err})
		mu.Unlock()
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}

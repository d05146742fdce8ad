package indexer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
)

type candidate struct {
	object       storage.Object
	relativePath string
}

// Stats summarizes a folder run
type Stats struct {
	Discovered int
	Indexed    int
	Skipped    int
	Failed     int
	Chunks     int
	Elapsed    time.Duration
}

func (s *Stats) String() string {
	return fmt.Sprintf("discovered=%d indexed=%d skipped=%d failed=%d chunks=%d elapsed=%s",
		s.Discovered, s.Indexed, s.Skipped, s.Failed, s.Chunks, s.Elapsed)
}

// discover lists supported, non-excluded files under rootURL ordered by relative path
func (i *Indexer) discover(ctx context.Context, rootURL string) ([]*candidate, error) {
	rootPath := strings.TrimRight(url.Path(rootURL), "/")
	var ret []*candidate
	if err := i.walk(ctx, rootURL, rootPath, &ret); err != nil {
		return nil, err
	}
	sort.Slice(ret, func(a, b int) bool { return ret[a].relativePath < ret[b].relativePath })
	return ret, nil
}

func (i *Indexer) walk(ctx context.Context, dirURL, rootPath string, out *[]*candidate) error {
	objects, err := i.fs.List(ctx, dirURL)
	if err != nil {
		return err
	}
	dirPath := strings.TrimRight(url.Path(dirURL), "/")
	for _, object := range objects {
		objectPath := strings.TrimRight(url.Path(object.URL()), "/")
		relativePath := strings.TrimPrefix(strings.TrimPrefix(objectPath, rootPath), "/")
		if object.IsDir() {
			if objectPath == dirPath || relativePath == "" {
				continue
			}
			if i.matcher.IsExcludedDir(relativePath) {
				continue
			}
			if err := i.walk(ctx, object.URL(), rootPath, out); err != nil {
				return err
			}
			continue
		}
		if !i.extractors.Supported(relativePath) {
			continue
		}
		if i.matcher.IsExcluded(relativePath, int(object.Size())) {
			continue
		}
		*out = append(*out, &candidate{object: object, relativePath: relativePath})
	}
	return nil
}

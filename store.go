package jobflow

import (
	"context"
	"fmt"
	"io"

	"github.com/viant/jobflow/runtime/execution"
	"github.com/viant/jobflow/service/dao"
	recordfs "github.com/viant/jobflow/service/dao/record/fs"
	recordmemory "github.com/viant/jobflow/service/dao/record/memory"
	recordsqlite "github.com/viant/jobflow/service/dao/record/sqlite"
)

// newRecordDAO opens the configured record store; the closer is nil unless
// the store holds a connection
func newRecordDAO(ctx context.Context, config StoreConfig) (dao.Service[string, execution.Record], io.Closer, error) {
	switch config.Driver {
	case StoreFS:
		ret, err := recordfs.New(ctx, config.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open fs store: %w", err)
		}
		return ret, nil, nil
	case StoreSQLite:
		ret, err := recordsqlite.New(config.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return ret, ret, nil
	}
	return recordmemory.New(), nil, nil
}

package mocks

//go:generate mockgen -destination=./mock_source.go -package=mocks github.com/rxtech-lab/argo-replay/internal/source Source
//go:generate mockgen -destination=./mock_binary_codec.go -package=mocks github.com/rxtech-lab/argo-replay/internal/cache BinaryCodec
//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/rxtech-lab/argo-replay/internal/strategy Strategy
//go:generate mockgen -destination=./mock_result_sink.go -package=mocks github.com/rxtech-lab/argo-replay/internal/scheduler ResultSink

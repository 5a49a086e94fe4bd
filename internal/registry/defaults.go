package registry

import "time"

// Default returns the built-in fleet catalog for the multi-model LLM
// deployment: the LiteLLM proxy and its Postgres store, the vLLM and
// Xinference model backends, the RAGFlow stack with its datastores, and
// Prometheus monitoring.
func Default() (*Registry, error) {
	return New([]ServiceDescriptor{
		{
			Name:  "postgres",
			Group: GroupProxy,
			Check: HealthCheck{Kind: CheckTCP, Address: "localhost:5432"},
			Handle: Handle{
				ComposeFile: "deploy/litellm/compose.yml",
				Project:     "litellm",
				Service:     "postgres",
			},
			StartTimeout: 60 * time.Second,
		},
		{
			Name:      "litellm",
			Group:     GroupProxy,
			DependsOn: []string{"postgres"},
			Check: HealthCheck{
				Kind:   CheckHTTP,
				URL:    "http://localhost:4000/health/liveliness",
				Schema: SchemaLiteLLM,
			},
			Handle: Handle{
				ComposeFile: "deploy/litellm/compose.yml",
				Project:     "litellm",
				Service:     "litellm",
			},
		},
		{
			Name:       "vllm-qwen25",
			Group:      GroupInference,
			Replicable: true,
			Check: HealthCheck{
				Kind:   CheckHTTP,
				URL:    "http://localhost:9998/health",
				Schema: SchemaModel,
			},
			Handle: Handle{
				ComposeFile: "deploy/vllm/compose.yml",
				Project:     "vllm",
				Service:     "qwen25",
			},
			// Model weights load on first start; give it longer than the rest.
			StartTimeout: 300 * time.Second,
		},
		{
			Name:       "vllm-qwen3",
			Group:      GroupInference,
			Replicable: true,
			Check: HealthCheck{
				Kind:   CheckHTTP,
				URL:    "http://localhost:9999/health",
				Schema: SchemaModel,
			},
			Handle: Handle{
				ComposeFile: "deploy/vllm/compose.yml",
				Project:     "vllm",
				Service:     "qwen3",
			},
			StartTimeout: 300 * time.Second,
		},
		{
			Name:       "xinference",
			Group:      GroupInference,
			Replicable: true,
			Check: HealthCheck{
				Kind:   CheckHTTP,
				URL:    "http://localhost:9900/health",
				Schema: SchemaModel,
			},
			Handle: Handle{
				ComposeFile: "deploy/xinference/compose.yml",
				Project:     "xinference",
				Service:     "xinference",
			},
			StartTimeout: 300 * time.Second,
		},
		{
			Name:  "mysql",
			Group: GroupRetrieval,
			Check: HealthCheck{Kind: CheckTCP, Address: "localhost:3306"},
			Handle: Handle{
				ComposeFile: "deploy/ragflow/compose.yml",
				Project:     "ragflow",
				Service:     "mysql",
			},
			StartTimeout: 60 * time.Second,
		},
		{
			Name:  "redis",
			Group: GroupRetrieval,
			Check: HealthCheck{Kind: CheckTCP, Address: "localhost:6379"},
			Handle: Handle{
				ComposeFile: "deploy/ragflow/compose.yml",
				Project:     "ragflow",
				Service:     "redis",
			},
			StartTimeout: 30 * time.Second,
		},
		{
			Name:  "elasticsearch",
			Group: GroupRetrieval,
			Check: HealthCheck{
				Kind: CheckHTTP,
				URL:  "http://localhost:1200/_cluster/health",
			},
			Handle: Handle{
				ComposeFile: "deploy/ragflow/compose.yml",
				Project:     "ragflow",
				Service:     "es01",
			},
			StartTimeout: 120 * time.Second,
		},
		{
			Name:  "minio",
			Group: GroupRetrieval,
			Check: HealthCheck{
				Kind: CheckHTTP,
				URL:  "http://localhost:9000/minio/health/live",
			},
			Handle: Handle{
				ComposeFile: "deploy/ragflow/compose.yml",
				Project:     "ragflow",
				Service:     "minio",
			},
			StartTimeout: 60 * time.Second,
		},
		{
			Name:      "ragflow",
			Group:     GroupRetrieval,
			DependsOn: []string{"mysql", "redis", "elasticsearch", "minio"},
			Check: HealthCheck{
				Kind: CheckHTTP,
				URL:  "http://localhost:9380/",
			},
			Handle: Handle{
				ComposeFile: "deploy/ragflow/compose.yml",
				Project:     "ragflow",
				Service:     "ragflow",
			},
			StartTimeout: 180 * time.Second,
		},
		{
			Name:  "prometheus",
			Group: GroupMonitoring,
			Check: HealthCheck{
				Kind: CheckHTTP,
				URL:  "http://localhost:9090/-/healthy",
			},
			Handle: Handle{
				ComposeFile: "deploy/monitoring/compose.yml",
				Project:     "monitoring",
				Service:     "prometheus",
			},
			StartTimeout: 60 * time.Second,
		},
	})
}

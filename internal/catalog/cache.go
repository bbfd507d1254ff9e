package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	productListKey   = "catalogo:productos"
	productKeyPrefix = "catalogo:producto:"
	cacheTTL         = 60 * time.Second
)

// Cache é o cache de leitura do catálogo. Os misses são silenciosos: a
// verdade é sempre o banco.
type Cache interface {
	GetProducts(ctx context.Context) ([]Product, bool)
	SetProducts(ctx context.Context, products []Product)
	GetProduct(ctx context.Context, id int64) (*Product, bool)
	SetProduct(ctx context.Context, product *Product)
	InvalidateProducts(ctx context.Context, productIDs []int64)
}

// RedisCache implementa Cache sobre o Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache cria uma nova instância de RedisCache
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func productKey(id int64) string {
	return fmt.Sprintf("%s%d", productKeyPrefix, id)
}

// GetProducts lê a listagem do catálogo do cache
func (c *RedisCache) GetProducts(ctx context.Context) ([]Product, bool) {
	data, err := c.client.Get(ctx, productListKey).Bytes()
	if err != nil {
		return nil, false
	}
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, false
	}
	return products, true
}

// SetProducts guarda a listagem do catálogo com TTL
func (c *RedisCache) SetProducts(ctx context.Context, products []Product) {
	data, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, productListKey, data, cacheTTL).Err(); err != nil {
		log.Printf("⚠️ [CACHE] Failed to store product list: %v", err)
	}
}

// GetProduct lê um produto do cache
func (c *RedisCache) GetProduct(ctx context.Context, id int64) (*Product, bool) {
	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var product Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, false
	}
	return &product, true
}

// SetProduct guarda um produto com TTL
func (c *RedisCache) SetProduct(ctx context.Context, product *Product) {
	data, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, productKey(product.ID), data, cacheTTL).Err(); err != nil {
		log.Printf("⚠️ [CACHE] Failed to store product %d: %v", product.ID, err)
	}
}

// InvalidateProducts remove a listagem e as entradas dos produtos dados.
// Chamado nos writes admin e depois de cada checkout (o stock mudou).
func (c *RedisCache) InvalidateProducts(ctx context.Context, productIDs []int64) {
	keys := make([]string, 0, len(productIDs)+1)
	keys = append(keys, productListKey)
	for _, id := range productIDs {
		keys = append(keys, productKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("⚠️ [CACHE] Failed to invalidate products: %v", err)
	}
}

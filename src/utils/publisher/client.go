package publisher

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	"github.com/catalogue-registry/registry/src/utils/config"

	"github.com/redis/go-redis/v9"
)

// NewClient connects to Redis and checks the connection
func NewClient(ctx context.Context, redisConfig config.Redis, name string) (client *redis.Client, err error) {
	opts := redis.Options{
		ClientName:      fmt.Sprintf("catalogue-registry/%s", name),
		Addr:            fmt.Sprintf("%s:%d", redisConfig.Host, redisConfig.Port),
		Password:        redisConfig.Password,
		Username:        redisConfig.User,
		DB:              redisConfig.DB,
		MinIdleConns:    redisConfig.MinIdleConns,
		MaxIdleConns:    redisConfig.MaxIdleConns,
		ConnMaxIdleTime: redisConfig.ConnMaxIdleTime,
		PoolSize:        redisConfig.MaxOpenConns,
		ConnMaxLifetime: redisConfig.ConnMaxLifetime,
	}

	if redisConfig.ClientCert != "" && redisConfig.ClientKey != "" && redisConfig.CaCert != "" {
		var cert tls.Certificate
		cert, err = tls.X509KeyPair([]byte(redisConfig.ClientCert), []byte(redisConfig.ClientKey))
		if err != nil {
			return
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM([]byte(redisConfig.CaCert)) {
			return nil, errors.New("failed to append CA cert to pool")
		}

		opts.TLSConfig = &tls.Config{
			MinVersion:   tls.VersionTLS12,
			RootCAs:      caCertPool,
			ClientCAs:    caCertPool,
			Certificates: []tls.Certificate{cert},
		}
	}

	client = redis.NewClient(&opts)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return
}

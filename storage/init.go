package storage

import (
	"QuizFunnel/storage/redis"
)

// Init 统一初始化存储层。问卷本身不落库，这里只有限流用的 Redis
func Init() error {
	if err := redis.Init(); err != nil {
		return err
	}
	return nil
}

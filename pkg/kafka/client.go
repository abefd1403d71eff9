// Package kafka wraps the Kafka producer and consumer for the match compute task bus.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"kkj-match-go/internal/config"
	"kkj-match-go/pkg/database"
	"kkj-match-go/pkg/log"
	"kkj-match-go/pkg/tasks"
)

// maxAttempts 是单个任务允许的最大消费次数，超过后提交 offset 丢弃。
const maxAttempts = 3

var writer *kafka.Writer

// TaskProcessor 定义了匹配任务的处理接口，由 pipeline 实现。
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.MatchComputeTask) error
}

// InitProducer 初始化全局 Kafka 生产者。
func InitProducer(cfg config.KafkaConfig) {
	writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	log.Infof("[Kafka] 生产者初始化成功, brokers: %v, topic: %s", cfg.Brokers, cfg.Topic)
}

// ProduceMatchTask 向 Kafka 写入一条匹配计算任务。
func ProduceMatchTask(ctx context.Context, task tasks.MatchComputeTask) error {
	if writer == nil {
		return fmt.Errorf("kafka producer not initialized")
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal match task: %w", err)
	}
	err = writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.RunID),
		Value: payload,
	})
	if err != nil {
		log.Errorf("[Kafka] 写入匹配任务失败, run_id: %s, error: %v", task.RunID, err)
		return fmt.Errorf("failed to write match task: %w", err)
	}
	log.Infof("[Kafka] 匹配任务已写入, run_id: %s, company_id: %s", task.RunID, task.CompanyID)
	return nil
}

// StartConsumer 启动消费循环，阻塞直到 ctx 取消。
// 每条消息通过 Redis 记录消费次数，失败任务最多重试 maxAttempts 次。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor TaskProcessor) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	log.Infof("[Kafka] 消费者启动, brokers: %v, topic: %s, group: %s", cfg.Brokers, cfg.Topic, cfg.GroupID)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("[Kafka] 消费者收到退出信号, 停止消费")
				return
			}
			log.Errorf("[Kafka] 拉取消息失败: %v", err)
			time.Sleep(time.Second)
			continue
		}

		var task tasks.MatchComputeTask
		if err := json.Unmarshal(msg.Value, &task); err != nil {
			log.Errorf("[Kafka] 解析任务失败, 丢弃该消息: %v", err)
			commit(ctx, reader, msg)
			continue
		}

		attemptKey := fmt.Sprintf("kafka:attempts:%s", task.RunID)
		attempts, err := database.RDB.Incr(ctx, attemptKey).Result()
		if err != nil {
			log.Errorf("[Kafka] 记录消费次数失败, run_id: %s, error: %v", task.RunID, err)
			attempts = 1
		}
		database.RDB.Expire(ctx, attemptKey, 24*time.Hour)

		if attempts > maxAttempts {
			log.Warnf("[Kafka] 任务超过最大重试次数, 丢弃, run_id: %s, attempts: %d", task.RunID, attempts)
			commit(ctx, reader, msg)
			continue
		}

		log.Infof("[Kafka] 开始处理匹配任务, run_id: %s, attempt: %d", task.RunID, attempts)
		if err := processor.Process(ctx, task); err != nil {
			log.Errorf("[Kafka] 处理匹配任务失败, run_id: %s, error: %v", task.RunID, err)
			// 不提交 offset，等待下次消费重试
			continue
		}

		database.RDB.Del(ctx, attemptKey)
		commit(ctx, reader, msg)
		log.Infof("[Kafka] 匹配任务处理完成, run_id: %s", task.RunID)
	}
}

func commit(ctx context.Context, reader *kafka.Reader, msg kafka.Message) {
	if err := reader.CommitMessages(ctx, msg); err != nil {
		log.Errorf("[Kafka] 提交 offset 失败: %v", err)
	}
}

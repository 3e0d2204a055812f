package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelOptimizeProgress = "optimize_progress"
	ChannelPaymentEvents    = "payment_events"
)

// ProgressMessage 任务进度消息
type ProgressMessage struct {
	Type     string `json:"type"`
	UserID   int64  `json:"user_id"`
	JobID    int64  `json:"job_id"`
	Kind     string `json:"kind"`
	Status   string `json:"status"`
	Step     string `json:"step"`
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// PaymentMessage 支付结算消息，推送给前端刷新额度
type PaymentMessage struct {
	Type          string `json:"type"`
	UserID        int64  `json:"user_id"`
	TransactionID int64  `json:"transaction_id"`
	Status        string `json:"status"`
}

// 进度阶段常量
const (
	StepQueued     = "queued"
	StepGenerating = "generating"
	StepSaving     = "saving"
	StepDone       = "done"
)

// 阶段对应的进度百分比
var StepProgress = map[string]int{
	StepQueued:     10,
	StepGenerating: 50,
	StepSaving:     90,
	StepDone:       100,
}

// 阶段对应的消息
var StepMessages = map[string]string{
	StepQueued:     "任务已排队",
	StepGenerating: "正在生成内容",
	StepSaving:     "正在保存结果",
	StepDone:       "任务完成",
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishProgress 发布进度消息
func (p *Publisher) PublishProgress(ctx context.Context, msg *ProgressMessage) error {
	msg.Type = "job_progress"

	// 自动填充进度和消息
	if msg.Progress == 0 && msg.Step != "" {
		if progress, ok := StepProgress[msg.Step]; ok {
			msg.Progress = progress
		}
	}
	if msg.Message == "" && msg.Step != "" {
		if message, ok := StepMessages[msg.Step]; ok {
			msg.Message = message
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal progress message: %w", err)
	}

	return p.client.Publish(ctx, ChannelOptimizeProgress, data).Err()
}

// PublishPayment 发布支付结算消息
func (p *Publisher) PublishPayment(ctx context.Context, msg *PaymentMessage) error {
	msg.Type = "payment_settled"

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal payment message: %w", err)
	}

	return p.client.Publish(ctx, ChannelPaymentEvents, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// SubscribeProgress 订阅进度消息
func (s *Subscriber) SubscribeProgress(ctx context.Context, handler func(*ProgressMessage)) error {
	pubsub := s.client.Subscribe(ctx, ChannelOptimizeProgress)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var progressMsg ProgressMessage
			if err := json.Unmarshal([]byte(msg.Payload), &progressMsg); err != nil {
				continue // 忽略解析错误
			}

			handler(&progressMsg)
		}
	}
}

// SubscribePayment 订阅支付结算消息
func (s *Subscriber) SubscribePayment(ctx context.Context, handler func(*PaymentMessage)) error {
	pubsub := s.client.Subscribe(ctx, ChannelPaymentEvents)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var paymentMsg PaymentMessage
			if err := json.Unmarshal([]byte(msg.Payload), &paymentMsg); err != nil {
				continue
			}

			handler(&paymentMsg)
		}
	}
}

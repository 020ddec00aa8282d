package feedback

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/rushteam/learnfeed/core"
)

// KafkaPublisher 将用户交互事件异步发送到 Kafka（生产环境推荐）。
//
// 写路径与 feed 热路径解耦：业务侧调用 Publish 只写入内存缓冲，
// 后台协程按批量/间隔刷新到 Kafka；消费侧由 KafkaConsumer 回放到
// Collector，完成画像与趋势榜单的更新。
type KafkaPublisher struct {
	client        *kgo.Client
	topic         string
	batchSize     int
	flushInterval time.Duration

	mu        sync.Mutex
	buffer    []*core.UserInteraction
	lastFlush time.Time
	closed    bool
	closeOnce sync.Once
	wg        sync.WaitGroup
	stopCh    chan struct{}
}

// KafkaConfig Kafka 收发配置。
type KafkaConfig struct {
	// Brokers Kafka Broker 地址列表
	Brokers []string

	// Topic 交互事件 Topic
	Topic string

	// BatchSize 批量大小（建议 100-1000）
	BatchSize int

	// FlushInterval 刷新间隔（建议 1-5 秒）
	FlushInterval time.Duration

	// ClientID 客户端 ID
	ClientID string

	// Group 消费组 ID（仅消费侧使用）
	Group string

	// Compression 压缩类型（gzip, snappy, lz4, zstd）
	Compression string
}

// NewKafkaPublisher 创建交互事件发送端。
func NewKafkaPublisher(config KafkaConfig) (*KafkaPublisher, error) {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 1 * time.Second
	}
	if config.ClientID == "" {
		config.ClientID = "learnfeed-feedback"
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(config.Brokers...),
		kgo.ClientID(config.ClientID),
		kgo.RequiredAcks(kgo.LeaderAck()),
		kgo.DisableIdempotentWrite(),
	}
	switch config.Compression {
	case "gzip":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.GzipCompression()))
	case "snappy":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.SnappyCompression()))
	case "lz4":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.Lz4Compression()))
	case "zstd":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.ZstdCompression()))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}

	p := &KafkaPublisher{
		client:        client,
		topic:         config.Topic,
		batchSize:     config.BatchSize,
		flushInterval: config.FlushInterval,
		buffer:        make([]*core.UserInteraction, 0, config.BatchSize),
		lastFlush:     time.Now(),
		stopCh:        make(chan struct{}),
	}

	p.wg.Add(1)
	go p.flushLoop()

	return p, nil
}

// Publish 异步记录一条交互事件（不阻塞）。
func (p *KafkaPublisher) Publish(ctx context.Context, interaction *core.UserInteraction) error {
	if interaction == nil || interaction.UserID == "" || interaction.ContentID == "" {
		return core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
			"feedback: interaction requires user id and content id")
	}
	if interaction.Timestamp.IsZero() {
		interaction.Timestamp = time.Now()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.buffer = append(p.buffer, interaction)
	if len(p.buffer) >= p.batchSize {
		go p.flush()
	}
	return nil
}

func (p *KafkaPublisher) flushLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.mu.Lock()
			shouldFlush := len(p.buffer) > 0 && time.Since(p.lastFlush) >= p.flushInterval
			p.mu.Unlock()
			if shouldFlush {
				p.flush()
			}
		case <-p.stopCh:
			return
		}
	}
}

func (p *KafkaPublisher) flush() {
	p.mu.Lock()
	if len(p.buffer) == 0 {
		p.mu.Unlock()
		return
	}
	events := make([]*core.UserInteraction, len(p.buffer))
	copy(events, p.buffer)
	p.buffer = p.buffer[:0]
	p.lastFlush = time.Now()
	p.mu.Unlock()

	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		// UserID 作 Key，保证同一用户的事件有序
		record := &kgo.Record{
			Topic: p.topic,
			Key:   []byte(event.UserID),
			Value: data,
		}
		p.client.Produce(context.Background(), record, nil)
	}
}

// Close 优雅关闭：刷掉缓冲后断开连接。
func (p *KafkaPublisher) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		close(p.stopCh)
		p.flush()
		p.wg.Wait()
		p.client.Close()
	})
	return nil
}

// KafkaConsumer 消费交互事件并回放到 Collector。
//
// 与 Collector 直连写入等价，但把行为日志、趋势榜单、缓存失效
// 的写放大移出了业务请求路径。
type KafkaConsumer struct {
	client    *kgo.Client
	collector *Collector
}

// NewKafkaConsumer 创建交互事件消费端。
func NewKafkaConsumer(config KafkaConfig, collector *Collector) (*KafkaConsumer, error) {
	if config.Group == "" {
		config.Group = "learnfeed-feedback"
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(config.Brokers...),
		kgo.ConsumerGroup(config.Group),
		kgo.ConsumeTopics(config.Topic),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaConsumer{client: client, collector: collector}, nil
}

// Run 持续消费直到 ctx 取消。单条事件的处理失败只跳过该条。
func (c *KafkaConsumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
		if fetches.IsClientClosed() {
			return nil
		}

		fetches.EachRecord(func(record *kgo.Record) {
			var interaction core.UserInteraction
			if err := json.Unmarshal(record.Value, &interaction); err != nil {
				return
			}
			_ = c.collector.Record(ctx, &interaction)
		})
	}
}

// Close 断开消费端连接。
func (c *KafkaConsumer) Close() error {
	c.client.Close()
	return nil
}

package worker

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/qs3c/resume_go_server/internal/model"
	"github.com/qs3c/resume_go_server/internal/pkg/pubsub"
	"github.com/qs3c/resume_go_server/internal/pkg/queue"
	"github.com/qs3c/resume_go_server/internal/repository"
)

// completer 模型补全接口，测试时可替换
type completer interface {
	Complete(ctx context.Context, systemPrompt, userContent string) (string, error)
}

// 各任务类型的系统提示词
var kindPrompts = map[string]string{
	model.KindOptimization: "你是资深简历顾问。根据用户提供的目标岗位描述，" +
		"给出针对性的简历优化建议，逐条列出可直接落笔的修改。",
	model.KindScoreCheck: "你是简历评分专家。对用户提供的简历内容打分（满分 100），" +
		"并按结构、表达、与岗位匹配度三个维度给出扣分原因。",
	model.KindLinkedinMessage: "你是求职沟通顾问。根据用户提供的岗位和背景信息，" +
		"起草一封简短、专业、不超过 150 词的 LinkedIn 打招呼私信。",
	model.KindGuidedBuild: "你是简历写作助手。根据用户提供的经历描述，" +
		"引导式地生成一份结构完整的简历草稿，按模块输出。",
}

// Processor 任务处理器
type Processor struct {
	jobRepo    *repository.JobRepository
	resumeRepo *repository.ResumeRepository
	ai         completer
	publisher  *pubsub.Publisher
}

// NewProcessor 创建任务处理器
func NewProcessor(
	jobRepo *repository.JobRepository,
	resumeRepo *repository.ResumeRepository,
	aiClient completer,
	publisher *pubsub.Publisher,
) *Processor {
	return &Processor{
		jobRepo:    jobRepo,
		resumeRepo: resumeRepo,
		ai:         aiClient,
		publisher:  publisher,
	}
}

// Process 处理一条优化任务
func (p *Processor) Process(ctx context.Context, msg *queue.JobMessage) error {
	job, err := p.jobRepo.GetByID(msg.JobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	// 重复投递的消息直接跳过
	if job.Status != "queued" {
		log.Printf("Job %d: skipping, status is %s", job.ID, job.Status)
		return nil
	}

	startedAt := time.Now()
	if err := p.jobRepo.MarkProcessing(job.ID); err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}

	publishProgress := func(step, status, errMsg string) {
		if p.publisher == nil {
			return
		}
		p.publisher.PublishProgress(ctx, &pubsub.ProgressMessage{
			UserID: msg.UserID,
			JobID:  msg.JobID,
			Kind:   job.Kind,
			Status: status,
			Step:   step,
			Error:  errMsg,
		})
	}

	handleError := func(err error) error {
		errMsg := err.Error()
		if markErr := p.jobRepo.MarkFailed(job.ID, errMsg); markErr != nil {
			log.Printf("Job %d: failed to mark failed: %v", job.ID, markErr)
		}
		publishProgress(pubsub.StepGenerating, "failed", errMsg)
		return err
	}

	prompt, ok := kindPrompts[job.Kind]
	if !ok {
		return handleError(fmt.Errorf("未知任务类型: %s", job.Kind))
	}

	log.Printf("Job %d: generating, kind=%s", job.ID, job.Kind)
	publishProgress(pubsub.StepGenerating, "processing", "")

	result, err := p.ai.Complete(ctx, prompt, p.buildUserContent(job))
	if err != nil {
		return handleError(fmt.Errorf("生成失败: %w", err))
	}

	publishProgress(pubsub.StepSaving, "processing", "")

	elapsed := int(time.Since(startedAt).Seconds())
	if err := p.jobRepo.MarkCompleted(job.ID, result, elapsed); err != nil {
		return handleError(fmt.Errorf("failed to save result: %w", err))
	}

	publishProgress(pubsub.StepDone, "completed", "")
	log.Printf("Job %d: completed in %d seconds", job.ID, elapsed)

	return nil
}

// buildUserContent 拼接用户输入，带上简历文件信息供模型参考
func (p *Processor) buildUserContent(job *model.OptimizeJob) string {
	var b strings.Builder

	if job.ResumeID > 0 {
		if resume, err := p.resumeRepo.GetByID(job.ResumeID); err == nil {
			fmt.Fprintf(&b, "简历文件：%s（%s）\n\n", resume.Title, resume.FileURL)
		}
	}

	b.WriteString(job.InputText)
	return b.String()
}

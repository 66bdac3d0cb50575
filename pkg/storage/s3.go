// Package storage подменяет файлы s3://bucket/key локальными копиями.
//
// Входной объект скачивается во временный каталог до начала операции,
// выходной файл пишется во временный каталог и загружается после успеха.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Scheme - префикс удаленного пути
const Scheme = "s3://"

// Config - параметры доступа к S3
type Config struct {
	Region string

	// Endpoint - адрес S3-совместимого сервера (MinIO и т.п.); пусто - AWS
	Endpoint string

	// AccessKeyID и SecretAccessKey; пусто - цепочка учетных данных AWS по умолчанию
	AccessKeyID     string
	SecretAccessKey string

	UsePathStyle bool
}

// Location - объект в бакете
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string {
	return Scheme + l.Bucket + "/" + l.Key
}

// IsRemote - путь указывает на S3
func IsRemote(p string) bool {
	return strings.HasPrefix(strings.ToLower(p), Scheme)
}

// ParseURI разбирает "s3://bucket/path/to/key"
func ParseURI(uri string) (Location, error) {
	if !IsRemote(uri) {
		return Location{}, fmt.Errorf("not an s3 uri: %q", uri)
	}
	bucket, key, _ := strings.Cut(uri[len(Scheme):], "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return Location{}, fmt.Errorf("s3 uri must be s3://bucket/key: %q", uri)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// transfer - перенос объекта между S3 и локальным файлом
type transfer interface {
	get(ctx context.Context, loc Location, w io.WriterAt) error
	put(ctx context.Context, loc Location, r io.Reader) error
}

// Client скачивает и загружает файлы операций
type Client struct {
	t       transfer
	tempDir string
}

// New создает клиента S3 по конфигурации
func New(ctx context.Context, cfg Config) (*Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Client{t: &s3Transfer{
		downloader: manager.NewDownloader(client),
		uploader:   manager.NewUploader(client),
	}}, nil
}

// s3Transfer - перенос через менеджер загрузок SDK (многопоточные части)
type s3Transfer struct {
	downloader *manager.Downloader
	uploader   *manager.Uploader
}

func (s *s3Transfer) get(ctx context.Context, loc Location, w io.WriterAt) error {
	_, err := s.downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	return err
}

func (s *s3Transfer) put(ctx context.Context, loc Location, r io.Reader) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
		Body:   r,
	})
	return err
}

// workDir - временный каталог клиента (создается при первом обращении)
func (c *Client) workDir() (string, error) {
	if c.tempDir != "" {
		return c.tempDir, nil
	}
	dir, err := os.MkdirTemp("", "easyjob-s3-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	c.tempDir = dir
	return dir, nil
}

// localName - локальный путь с тем же базовым именем, что у ключа
// Расширение сохраняется, от него зависит сжатие
func (c *Client) localName(loc Location) (string, error) {
	dir, err := c.workDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, path.Base(loc.Key)), nil
}

// Fetch скачивает объект и возвращает путь к локальной копии
// Локальный путь возвращается без изменений
func (c *Client) Fetch(ctx context.Context, p string) (string, error) {
	if !IsRemote(p) {
		return p, nil
	}
	loc, err := ParseURI(p)
	if err != nil {
		return "", err
	}
	local, err := c.localName(loc)
	if err != nil {
		return "", err
	}

	f, err := os.Create(local)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", local, err)
	}
	getErr := c.t.get(ctx, loc, f)
	closeErr := f.Close()
	if getErr != nil {
		return "", fmt.Errorf("failed to download %s: %w", loc, getErr)
	}
	if closeErr != nil {
		return "", closeErr
	}
	return local, nil
}

// Output - локальный путь для файла, который будет загружен в p через Store
func (c *Client) Output(p string) (string, error) {
	if !IsRemote(p) {
		return p, nil
	}
	loc, err := ParseURI(p)
	if err != nil {
		return "", err
	}
	return c.localName(loc)
}

// Store загружает локальный файл в объект p; для локального p ничего не делает
func (c *Client) Store(ctx context.Context, local, p string) error {
	if !IsRemote(p) {
		return nil
	}
	loc, err := ParseURI(p)
	if err != nil {
		return err
	}
	f, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", local, err)
	}
	defer f.Close()

	if err := c.t.put(ctx, loc, f); err != nil {
		return fmt.Errorf("failed to upload %s: %w", loc, err)
	}
	return nil
}

// Close удаляет временный каталог
func (c *Client) Close() error {
	if c.tempDir == "" {
		return nil
	}
	err := os.RemoveAll(c.tempDir)
	c.tempDir = ""
	return err
}

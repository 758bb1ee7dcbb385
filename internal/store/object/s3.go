package object

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

const signatureFolder = "Firmas"

// S3Options carries the credentials and addressing needed to reach a bucket.
type S3Options struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	PathStyleAccess bool
}

// S3Store keeps all assets in one bucket under hierarchical keys:
//
//	{owner}/{session}/QR_{session}.png
//	{owner}/{session}/Firmas/Firma_{identity}.png
//
// grouping a session's assets under one prefix so the whole folder can be
// deleted in a single sweep. Browsers never talk to the bucket directly;
// URLs handed out point at the internal proxy, which presigns a short-lived
// GET and streams the bytes through.
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	proxyBase string
	log       *zap.Logger
}

// NewS3Store builds a client from static credentials. proxyBase is the
// internal proxy route prefix, e.g. "/api/proxy/object".
func NewS3Store(opts S3Options, proxyBase string, log *zap.Logger) (*S3Store, error) {
	bucket := strings.TrimSpace(opts.Bucket)
	region := strings.TrimSpace(opts.Region)
	if bucket == "" || region == "" || opts.AccessKeyID == "" || opts.SecretAccessKey == "" {
		return nil, fmt.Errorf("incomplete s3 config: bucket/region/access_key_id/secret_access_key are required")
	}

	clientOpts := s3.Options{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
	}
	if endpoint := strings.TrimSpace(opts.Endpoint); endpoint != "" {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		clientOpts.BaseEndpoint = aws.String(strings.TrimSuffix(endpoint, "/"))
		clientOpts.UsePathStyle = true
	}
	if opts.PathStyleAccess {
		clientOpts.UsePathStyle = true
	}

	client := s3.New(clientOpts)
	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		proxyBase: strings.TrimRight(proxyBase, "/"),
		log:       log,
	}, nil
}

func sessionPrefix(owner, sessionName string) string {
	return sanitizeComponent(owner) + "/" + sanitizeComponent(sessionName) + "/"
}

func (s *S3Store) SaveQR(ctx context.Context, png []byte, owner, sessionName string) (string, error) {
	name := sanitizeComponent(sessionName)
	key := sessionPrefix(owner, sessionName) + "QR_" + name + ".png"
	if err := s.put(ctx, key, png); err != nil {
		return "", err
	}
	return key, nil
}

func (s *S3Store) SaveSignature(ctx context.Context, image []byte, owner, sessionName, identityNumber string) (string, error) {
	key := sessionPrefix(owner, sessionName) + signatureFolder + "/Firma_" + sanitizeComponent(identityNumber) + ".png"
	if err := s.put(ctx, key, image); err != nil {
		return "", err
	}
	return key, nil
}

func (s *S3Store) put(ctx context.Context, key string, payload []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) QRURL(ref string) string        { return s.proxyURL(ref) }
func (s *S3Store) SignatureURL(ref string) string { return s.proxyURL(ref) }

// proxyURL returns the internal proxy path for an object key. The bucket is
// not reachable cross-origin from browsers, so direct URLs are never exposed.
func (s *S3Store) proxyURL(ref string) string {
	if ref == "" {
		return ""
	}
	return s.proxyBase + "/" + strings.TrimLeft(ref, "/")
}

// PresignGet resolves an object key to a short-lived signed URL. Used by the
// proxy handler to stream bucket objects to browsers.
func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) {
		o.Expires = 10 * time.Minute
	})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *S3Store) DeleteQR(ctx context.Context, ref string) bool        { return s.remove(ctx, ref) }
func (s *S3Store) DeleteSignature(ctx context.Context, ref string) bool { return s.remove(ctx, ref) }

func (s *S3Store) remove(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if s.log != nil {
			s.log.Warn("s3 object delete failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}

// DeleteSessionAssets lists every object under the session's prefix and
// batch-deletes them.
func (s *S3Store) DeleteSessionAssets(ctx context.Context, owner, sessionName string) bool {
	prefix := sessionPrefix(owner, sessionName)
	ok := true
	var continuation *string
	for {
		page, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			if s.log != nil {
				s.log.Warn("s3 prefix list failed", zap.String("prefix", prefix), zap.Error(err))
			}
			return false
		}
		if len(page.Contents) > 0 {
			ids := make([]s3types.ObjectIdentifier, 0, len(page.Contents))
			for _, obj := range page.Contents {
				ids = append(ids, s3types.ObjectIdentifier{Key: obj.Key})
			}
			_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(s.bucket),
				Delete: &s3types.Delete{Objects: ids, Quiet: aws.Bool(true)},
			})
			if err != nil {
				if s.log != nil {
					s.log.Warn("s3 prefix delete failed", zap.String("prefix", prefix), zap.Error(err))
				}
				ok = false
			}
		}
		if page.IsTruncated == nil || !*page.IsTruncated {
			break
		}
		continuation = page.NextContinuationToken
	}
	return ok
}
